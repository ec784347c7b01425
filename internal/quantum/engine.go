package quantum

import "fmt"

// Engine owns one organism's evolving affect state. The state starts pure
// (a statevector) and is promoted to a density matrix the first time a
// noise channel touches it; exactly one of the two representations is held
// at any time, and once mixed the engine never reverts for the lifetime of
// the instance (until Reset).
//
// The engine provides no internal locking: a surrounding service must
// serialize access per organism.
type Engine struct {
	qubits int
	topo   Topology

	pure  *State
	mixed *DensityMatrix

	// Per-evolution bookkeeping consumed by the stability metric.
	energyHistory []float64
	phaseRate     float64
	amplitudeRate float64
}

// NewEngine allocates an engine in the |0...0> state.
func NewEngine(qubits int) (*Engine, error) {
	s, err := NewState(qubits)
	if err != nil {
		return nil, err
	}
	return &Engine{
		qubits: qubits,
		topo:   NewTopology(qubits),
		pure:   s,
	}, nil
}

// Qubits returns the register size.
func (e *Engine) Qubits() int { return e.qubits }

// Mixed reports whether the state has been promoted to a density matrix.
func (e *Engine) Mixed() bool { return e.mixed != nil }

// Topology returns the fixed role assignment and coupling graph.
func (e *Engine) Topology() Topology { return e.topo }

// ApplyGate applies one gate to the current representation. All validation
// happens before any amplitude is mutated.
func (e *Engine) ApplyGate(g Gate) error {
	if e.mixed != nil {
		return e.mixed.apply(g)
	}
	return e.pure.apply(g)
}

// ApplyChannel applies a noise channel to one qubit, promoting the pure
// state to a density matrix on first use. A zero rate is a no-op but still
// marks the state as mixed.
func (e *Engine) ApplyChannel(qubit int, rate float64, kind ChannelKind) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%w: rate %v outside [0, 1]", ErrInvalidRate, rate)
	}
	if qubit < 0 || qubit >= e.qubits {
		return fmt.Errorf("%w: qubit %d on %d-qubit register", ErrInvalidTarget, qubit, e.qubits)
	}
	if kind != PhaseDamping && kind != AmplitudeDamping {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidRate, kind)
	}

	if e.mixed == nil {
		e.mixed = newDensityFromPure(e.pure)
		e.pure = nil
	}
	return e.mixed.applyChannel(qubit, rate, kind)
}

// Reset reinitializes to |0...0> and drops any density-matrix promotion.
// A pure state is rewound in place; a mixed one is replaced by a fresh
// vector, freeing the dim^2 matrix.
func (e *Engine) Reset() {
	if e.pure != nil {
		e.pure.reset()
	} else {
		s, _ := NewState(e.qubits) // qubits already validated at construction
		e.pure = s
	}
	e.mixed = nil
	e.energyHistory = nil
	e.phaseRate = 0
	e.amplitudeRate = 0
}
