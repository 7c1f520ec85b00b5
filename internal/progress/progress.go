// Package progress defines the narrow progress-reporting capability the
// engine invokes at pipeline boundaries. Callers inject factories; the
// no-op factories are the default so the engine works unchanged in tests
// and non-interactive runs.
package progress

// Progress receives advancement updates for one unit of work.
type Progress interface {
	// Advance moves the indicator forward by n steps.
	Advance(n int)
	// Finish completes the indicator and releases any display state.
	Finish()
}

// IndeterminateFactory starts a spinner-style indicator with no known total.
type IndeterminateFactory func(label string) Progress

// DeterminateFactory starts a bar-style indicator with a known total.
type DeterminateFactory func(label string, total int) Progress

// CounterFactory starts a running-count indicator.
type CounterFactory func(label string) Progress

type noProgress struct{}

func (noProgress) Advance(int) {}
func (noProgress) Finish()     {}

// NoIndeterminate returns a no-op indeterminate indicator.
func NoIndeterminate(string) Progress { return noProgress{} }

// NoDeterminate returns a no-op determinate indicator.
func NoDeterminate(string, int) Progress { return noProgress{} }

// NoCounter returns a no-op counter indicator.
func NoCounter(string) Progress { return noProgress{} }
