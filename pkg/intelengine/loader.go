package intelengine

import (
	"sync"
	"time"
)

// Loader is the boot overlay. It dismisses itself on the first of: an
// explicit Dismiss, the fallback timeout, or the error-display delay after
// ShowError. Dismissal is one-way and idempotent; once gone, the overlay
// never reappears.
type Loader struct {
	cfg LoaderConfig
	now func() time.Time

	mu        sync.Mutex
	started   time.Time
	errAt     time.Time
	errMsg    string
	dismissed bool
}

// NewLoader starts the fallback timer immediately. now may be nil, defaulting
// to the wall clock; tests inject their own.
func NewLoader(cfg LoaderConfig, now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{
		cfg:     cfg,
		now:     now,
		started: now(),
	}
}

// Dismiss hides the overlay. Further calls are no-ops.
func (l *Loader) Dismiss() {
	l.mu.Lock()
	l.dismissed = true
	l.mu.Unlock()
}

// ShowError displays msg on the overlay and arms the delayed forced
// dismissal. Ignored once dismissed.
func (l *Loader) ShowError(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dismissed {
		return
	}
	l.errMsg = msg
	l.errAt = l.now()
}

// Tick advances the loader's timers. Call it once per frame.
func (l *Loader) Tick() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dismissed {
		return
	}
	now := l.now()
	if !l.errAt.IsZero() && now.Sub(l.errAt) >= l.cfg.ErrorDisplayDelay {
		l.dismissed = true
		return
	}
	if now.Sub(l.started) >= l.cfg.FallbackTimeout {
		l.dismissed = true
	}
}

// Visible reports whether the overlay should still draw.
func (l *Loader) Visible() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.dismissed
}

// Error returns the error message shown on the overlay, if any.
func (l *Loader) Error() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.dismissed {
		return ""
	}
	return l.errMsg
}
