package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// Ticker is a component advanced once per frame.
type Ticker interface {
	Tick(delta time.Duration)
}

// TickFunc adapts a function to Ticker.
type TickFunc func(delta time.Duration)

func (f TickFunc) Tick(delta time.Duration) {
	f(delta)
}

type tickerFactory func(time.Duration) (<-chan time.Time, func())

type timeSource func() time.Time

func defaultTickerFactory() tickerFactory {
	return func(d time.Duration) (<-chan time.Time, func()) {
		ticker := time.NewTicker(d)
		return ticker.C, ticker.Stop
	}
}

// Loop drives registered components on a single goroutine, in registration
// order, once per frame.
type Loop struct {
	frame     time.Duration
	maxFrames int
	logger    *log.Logger

	mu         sync.Mutex
	components []Ticker
	frames     int

	newTicker tickerFactory
	now       timeSource
}

// NewLoop returns a loop ticking every frame. maxFrames of zero runs until
// the context is cancelled.
func NewLoop(frame time.Duration, maxFrames int, logger *log.Logger) *Loop {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	if maxFrames < 0 {
		maxFrames = 0
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{
		frame:     frame,
		maxFrames: maxFrames,
		logger:    logger,
		newTicker: defaultTickerFactory(),
		now:       time.Now,
	}
}

// Register appends a component. Components registered while running are
// ticked from the next frame.
func (l *Loop) Register(t Ticker) {
	if t == nil {
		return
	}
	l.mu.Lock()
	l.components = append(l.components, t)
	l.mu.Unlock()
}

// Step ticks every component once with delta.
func (l *Loop) Step(delta time.Duration) {
	l.mu.Lock()
	components := make([]Ticker, len(l.components))
	copy(components, l.components)
	l.frames++
	l.mu.Unlock()

	for _, c := range components {
		c.Tick(delta)
	}
}

// Frames returns the number of completed steps.
func (l *Loop) Frames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}

// Run blocks, stepping on every tick until ctx is done or maxFrames frames
// have run. It returns ctx.Err() when cancelled and nil when the frame limit
// is reached.
func (l *Loop) Run(ctx context.Context) error {
	if l.newTicker == nil {
		l.newTicker = defaultTickerFactory()
	}
	if l.now == nil {
		l.now = time.Now
	}

	tickerC, stop := l.newTicker(l.frame)
	defer stop()

	l.logger.Printf("engine started: frame %s, max frames %d", l.frame, l.maxFrames)
	defer func() {
		l.logger.Printf("engine stopped after %d frames", l.Frames())
	}()

	last := l.now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tickerC:
			delta := now.Sub(last)
			if delta <= 0 {
				delta = l.frame
			} else if delta > 10*l.frame {
				delta = l.frame
			}
			last = now
			l.Step(delta)
			if l.maxFrames > 0 && l.Frames() >= l.maxFrames {
				return nil
			}
		}
	}
}
