// Package risk computes fraud-risk assessments for click and conversion
// events from user-agent, click-cadence and referrer signals.
package risk

import (
	"time"

	"go.uber.org/zap"
)

// DefaultWindow is the trailing window for click-rate checks.
const DefaultWindow = 5 * time.Minute

// DefaultBlockThreshold is the composite score at which an event is blocked.
// Warning-tier cadence alone (30) must stay below it; a critical automation
// signature alone (90) must cross it.
const DefaultBlockThreshold = 70

// Engine scores events. It keeps no state of its own beyond the click
// counter dependency; assessments are computed fresh per event.
type Engine struct {
	counter        ClickCounter
	window         time.Duration
	blockThreshold int
	log            *zap.Logger

	now func() time.Time
}

// Option tunes an Engine.
type Option func(*Engine)

// WithWindow overrides the click-rate window.
func WithWindow(w time.Duration) Option {
	return func(e *Engine) { e.window = w }
}

// WithBlockThreshold overrides the block threshold.
func WithBlockThreshold(t int) Option {
	return func(e *Engine) { e.blockThreshold = t }
}

// NewEngine constructs an Engine over the given click counter.
func NewEngine(counter ClickCounter, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		counter:        counter,
		window:         DefaultWindow,
		blockThreshold: DefaultBlockThreshold,
		log:            log,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Window returns the engine's click-rate window.
func (e *Engine) Window() time.Duration { return e.window }

// BlockThreshold returns the score at which events are blocked.
func (e *Engine) BlockThreshold() int { return e.blockThreshold }
