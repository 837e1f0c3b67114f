package observ

import "sync"

// Totals sums reports from concurrent runs, keyed by phase name.
type Totals struct {
	mu     sync.Mutex
	order  []string
	phases map[string]*PhaseReport
	total  float64
}

func NewTotals() *Totals {
	return &Totals{phases: make(map[string]*PhaseReport)}
}

// Add merges r. Phase order follows first appearance.
func (t *Totals) Add(r Report) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range r.Phases {
		acc, ok := t.phases[p.Name]
		if !ok {
			acc = &PhaseReport{Name: p.Name}
			t.phases[p.Name] = acc
			t.order = append(t.order, p.Name)
		}
		acc.DurationMS += p.DurationMS
		acc.Count += max(p.Count, 1)
	}
	t.total += r.TotalMS
}

// Report returns the accumulated totals.
func (t *Totals) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := Report{TotalMS: t.total, Phases: make([]PhaseReport, 0, len(t.order))}
	for _, name := range t.order {
		out.Phases = append(out.Phases, *t.phases[name])
	}
	return out
}
