package intelengine

import (
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dhowden/tag"
	"github.com/hajimehoshi/ebiten/v2/audio"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// AmbientPlayer loops random MP3 tracks from a directory as the soundtrack,
// reporting track metadata so the HUD can show what is playing. Tracks fade
// out over their final seconds.
type AmbientPlayer struct {
	dir        string
	onMetadata func(song, artist string)

	audioContext *audio.Context
	stopChan     chan struct{}
	stoppedChan  chan struct{}
	isStopping   atomic.Bool
}

func NewAmbientPlayer(dir string, onMetadata func(song, artist string)) *AmbientPlayer {
	return &AmbientPlayer{
		dir:         dir,
		onMetadata:  onMetadata,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

func (p *AmbientPlayer) Shutdown() {
	p.isStopping.Store(true)
	close(p.stopChan)
	<-p.stoppedChan
}

func (p *AmbientPlayer) Start() {
	go func() {
		defer close(p.stoppedChan)
		for {
			select {
			case <-p.stopChan:
				return
			default:
			}

			tracks, err := p.listTracks()
			if err != nil || len(tracks) == 0 {
				if err != nil {
					log.Printf("[audio] reading %s: %v", p.dir, err)
				}
				select {
				case <-time.After(5 * time.Second):
					continue
				case <-p.stopChan:
					return
				}
			}

			path := tracks[rand.Intn(len(tracks))]
			if err := p.playTrack(path); err != nil {
				log.Printf("[audio] playing %s: %v", path, err)
				select {
				case <-time.After(5 * time.Second):
				case <-p.stopChan:
					return
				}
			}
			if p.isStopping.Load() {
				return
			}
		}
	}()
}

func (p *AmbientPlayer) listTracks() ([]string, error) {
	var tracks []string
	err := filepath.Walk(p.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			tracks = append(tracks, path)
		}
		return nil
	})
	return tracks, err
}

func (p *AmbientPlayer) playTrack(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var artist, song string
	if m, err := tag.ReadFrom(f); err == nil {
		artist = m.Artist()
		song = m.Title()
	}
	if song == "" {
		// Fall back to "Artist - Title" filenames.
		fullTitle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		song = fullTitle
		if parts := strings.SplitN(fullTitle, " - ", 2); len(parts) == 2 {
			artist, song = parts[0], parts[1]
		}
	}
	if p.onMetadata != nil {
		p.onMetadata(song, artist)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return err
	}

	if p.audioContext == nil {
		p.audioContext = audio.NewContext(44100)
	}
	player, err := p.audioContext.NewPlayer(d)
	if err != nil {
		return err
	}
	player.Play()
	log.Printf("[audio] playing: %s", path)

	fadeDuration := 5 * time.Second
	totalBytes := d.Length()
	duration := time.Duration(totalBytes) * time.Second / time.Duration(d.SampleRate()*4)
	startTime := time.Now()
	var stoppingAt time.Time
	for player.IsPlaying() {
		if p.isStopping.Load() && stoppingAt.IsZero() {
			stoppingAt = time.Now()
		}

		remaining := duration - time.Since(startTime)
		vol := 1.0
		if remaining <= fadeDuration {
			vol = float64(remaining) / float64(fadeDuration)
		}
		if !stoppingAt.IsZero() {
			stopVol := 1.0 - float64(time.Since(stoppingAt))/float64(fadeDuration)
			if stopVol < vol {
				vol = stopVol
			}
			if stopVol <= 0 {
				break
			}
		}
		if vol < 0 {
			vol = 0
		}
		player.SetVolume(vol)

		if remaining <= 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	player.Close()
	return nil
}
