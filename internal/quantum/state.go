// Package quantum implements the affect engine: a small statevector /
// density-matrix simulator that models an emotional state as a physical
// quantum system and evolves it under a need- and personality-parameterized
// Hamiltonian.
//
// The engine owns its amplitude buffer exclusively. Callers interact through
// gates, noise channels and the Trotter evolver, and only ever receive
// derived metrics (energy, entropy, resonance, stability) back.
package quantum

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

const (
	// MaxQubits bounds the register so the 2^N state stays tractable.
	// 16 qubits is a 65536-amplitude vector; beyond that the density-matrix
	// promotion no longer fits comfortably in memory.
	MaxQubits = 16

	// parallelDim is the state dimension above which amplitude updates are
	// spread across worker goroutines. Pairs are disjoint, so the only
	// safe parallelism boundary is within a single gate application.
	parallelDim = 1 << 11

	// renormEpsilon is the norm drift below which no correction is applied.
	renormEpsilon = 1e-12

	// normFaultTolerance is the drift beyond which renormalization would
	// mask a logic error rather than absorb rounding noise.
	normFaultTolerance = 1e-2
)

// State is a pure quantum state: 2^N complex amplitudes indexed by the
// N-bit basis integer, qubit 0 in the least significant bit.
type State struct {
	qubits int
	amps   []complex128
}

// NewState allocates the |0...0> state for the given register size.
func NewState(qubits int) (*State, error) {
	if qubits < 1 || qubits > MaxQubits {
		return nil, fmt.Errorf("%w: qubit count %d outside [1, %d]", ErrInvalidDimension, qubits, MaxQubits)
	}
	amps := make([]complex128, 1<<qubits)
	amps[0] = 1
	return &State{qubits: qubits, amps: amps}, nil
}

// Qubits returns the register size.
func (s *State) Qubits() int { return s.qubits }

// apply validates the gate against this register and applies it in place,
// renormalizing afterwards.
func (s *State) apply(g Gate) error {
	if err := s.checkIndices(g); err != nil {
		return err
	}

	switch g.Kind {
	case GateCNOT:
		s.applyCNOT(g.Control, g.Target)
	case GateCRZ:
		m, err := g.matrix()
		if err != nil {
			return err
		}
		s.applyControlledPhase(g.Control, g.Target, m)
	default:
		m, err := g.matrix()
		if err != nil {
			return err
		}
		s.applySingle(g.Target, m)
	}

	return s.renormalize()
}

// checkIndices rejects out-of-range targets and self-controlled gates
// before any amplitude is touched.
func (s *State) checkIndices(g Gate) error {
	if g.Target < 0 || g.Target >= s.qubits {
		return fmt.Errorf("%w: target %d on %d-qubit register", ErrInvalidTarget, g.Target, s.qubits)
	}
	if g.controlled() {
		if g.Control < 0 || g.Control >= s.qubits {
			return fmt.Errorf("%w: control %d on %d-qubit register", ErrInvalidTarget, g.Control, s.qubits)
		}
		if g.Control == g.Target {
			return fmt.Errorf("%w: control and target must differ", ErrInvalidTarget)
		}
	}
	return nil
}

// applySingle pairs every basis index with its target-bit-flipped partner
// and updates both amplitudes with the 2x2 gate matrix. This keeps the cost
// linear in the state size instead of materializing the 2^N x 2^N operator.
func (s *State) applySingle(target int, m [2][2]complex128) {
	mask := 1 << target
	work := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if i&mask != 0 {
				continue
			}
			j := i | mask
			a, b := s.amps[i], s.amps[j]
			s.amps[i] = m[0][0]*a + m[0][1]*b
			s.amps[j] = m[1][0]*a + m[1][1]*b
		}
	}
	s.forRange(work)
}

// applyCNOT swaps the target-bit pair wherever the control bit is set.
func (s *State) applyCNOT(control, target int) {
	cmask := 1 << control
	tmask := 1 << target
	work := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if i&cmask == 0 || i&tmask != 0 {
				continue
			}
			j := i | tmask
			s.amps[i], s.amps[j] = s.amps[j], s.amps[i]
		}
	}
	s.forRange(work)
}

// applyControlledPhase applies the diagonal rotation m to the target qubit
// on the subspace where the control bit is set.
func (s *State) applyControlledPhase(control, target int, m [2][2]complex128) {
	cmask := 1 << control
	tmask := 1 << target
	work := func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if i&cmask == 0 {
				continue
			}
			if i&tmask == 0 {
				s.amps[i] *= m[0][0]
			} else {
				s.amps[i] *= m[1][1]
			}
		}
	}
	s.forRange(work)
}

// forRange runs work over the full index range, chunked across workers for
// large states. Each basis-index pair is owned by exactly one chunk (the one
// holding the pair's lower index), so chunks write disjoint slots.
func (s *State) forRange(work func(lo, hi int)) {
	dim := len(s.amps)
	if dim < parallelDim {
		work(0, dim)
		return
	}

	workers := runtime.NumCPU()
	if workers > dim/2 {
		workers = dim / 2
	}
	chunk := dim / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if w == workers-1 {
			hi = dim
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			work(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// norm returns the Euclidean norm of the amplitude vector.
func (s *State) norm() float64 {
	sum := 0.0
	for _, a := range s.amps {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

// renormalize absorbs floating-point drift after a gate. Large deviations
// are never silently corrected: they indicate a logic error upstream.
func (s *State) renormalize() error {
	n := s.norm()
	dev := math.Abs(n - 1)
	if dev <= renormEpsilon {
		return nil
	}
	if dev > normFaultTolerance {
		return fmt.Errorf("%w: norm %.6f after gate", ErrNormalizationFault, n)
	}
	inv := complex(1/n, 0)
	for i := range s.amps {
		s.amps[i] *= inv
	}
	return nil
}

// reset returns the state to |0...0>.
func (s *State) reset() {
	for i := range s.amps {
		s.amps[i] = 0
	}
	s.amps[0] = 1
}
