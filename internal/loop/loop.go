// Package loop implements the fixed-cadence game loop thread of
// spec.md §4.5.
package loop

import "time"

// DefaultTickRate is the loop's default cadence in Hz.
const DefaultTickRate = 60

// TickFunc runs one simulation step. It is called synchronously on the
// loop's own goroutine; it is the registry's single writer.
type TickFunc func(tick uint64, dt time.Duration)

// Loop runs TickFunc at a fixed cadence. Each iteration drains whatever
// the caller's TickFunc drains, runs the tick, then sleeps until the
// next scheduled deadline. If the tick overran the deadline, the loop
// skips the sleep and re-anchors the next deadline from now — there is
// no catch-up accumulator, since the tick rate is a ceiling, not a
// guarantee, under overload.
type Loop struct {
	Period time.Duration
	Tick   TickFunc

	stop chan struct{}
	done chan struct{}

	// now is overridable for deterministic cadence tests.
	now func() time.Time
	// sleep is overridable so tests can assert on requested durations
	// without real wall-clock waits.
	sleep func(time.Duration)
}

// New builds a Loop at tickRate Hz (DefaultTickRate if <= 0).
func New(tickRate int, tick TickFunc) *Loop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Loop{
		Period: time.Second / time.Duration(tickRate),
		Tick:   tick,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Run blocks, ticking until Stop is called. Stop halts after the
// current iteration completes.
func (l *Loop) Run() {
	defer close(l.done)

	var tick uint64
	next := l.now().Add(l.Period)
	last := l.now()

	for {
		select {
		case <-l.stop:
			return
		default:
		}

		now := l.now()
		dt := now.Sub(last)
		last = now

		l.Tick(tick, dt)
		tick++

		select {
		case <-l.stop:
			return
		default:
		}

		now = l.now()
		if now.After(next) {
			next = now.Add(l.Period)
			continue
		}
		l.sleep(next.Sub(now))
		next = next.Add(l.Period)
	}
}

// Stop signals the loop to halt after its current iteration and blocks
// until it has.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.done
}
