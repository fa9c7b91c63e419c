package sources

const (
	CountryPolygonsURL = "https://raw.githubusercontent.com/vasturiano/globe.gl/master/example/datasets/ne_110m_admin_0_countries.geojson"

	RestCountriesURL      = "https://restcountries.com/v3.1/alpha/"
	WorldBankURL          = "https://api.worldbank.org/v2/country/"
	WorldBankGDPIndicator = "/indicator/NY.GDP.MKTP.CD?format=json&mrnev=1"
	RSSToJSONURL          = "https://api.rss2json.com/v1/api.json?rss_url="
	GoogleNewsRSSURL      = "https://news.google.com/rss"
	USGSEarthquakesURL    = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/4.5_week.geojson"

	DefaultTradeDataPath = "data/trade-partners.json"
)
