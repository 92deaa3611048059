// Package observer is the structured-event escape hatch spec.md §7 calls
// for: the core never prints or logs, but a caller may attach an Observer
// to watch generation-by-generation progress without the core ever
// touching a stream itself.
package observer

// Event is one generation's worth of structured progress. Fields not
// meaningful to the emitting engine are left zero (e.g. ParetoFrontSize
// is always 0 from the single-objective engine).
type Event struct {
	Generation      int
	BestFitness     float64
	CrossoverRate   float64
	MutationRate    float64
	ParetoFrontSize int
}

// Observer receives one Event per generation.
type Observer interface {
	Observe(e Event)
}

// Func adapts a plain function to Observer, the same way http.HandlerFunc
// adapts a function to http.Handler.
type Func func(Event)

func (f Func) Observe(e Event) { f(e) }

// Noop discards every event; it is the default when a caller passes no
// Observer.
var Noop Observer = Func(func(Event) {})
