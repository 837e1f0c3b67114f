package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a driver-scope event every interval. A run of heartbeats
// with an unchanged status and no span ends in between means a unit hangs.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	status   func() string
	done     chan struct{}
	stopOnce sync.Once
	exited   chan struct{}
}

// StartHeartbeat starts beating until Stop. status, when non-nil, is called
// on each beat and its text lands in the event detail. Returns nil when the
// tracer is disabled or interval is not positive.
func StartHeartbeat(tracer Tracer, interval time.Duration, status func() string) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		status:   status,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Heartbeat) loop() {
	defer close(h.exited)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for beat := uint64(1); ; beat++ {
		select {
		case <-h.done:
			return
		case now := <-ticker.C:
			detail := fmt.Sprintf("#%d", beat)
			if h.status != nil {
				detail += " " + h.status()
			}
			h.tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    goroutineID(),
				Name:   "heartbeat",
				Detail: detail,
			})
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil and on
// repeated calls.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() { close(h.done) })
	<-h.exited
}
