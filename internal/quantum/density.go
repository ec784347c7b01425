package quantum

import (
	"fmt"
	"math"
	"math/cmplx"
	"runtime"
	"sync"
)

// ChannelKind identifies a noise channel.
type ChannelKind string

const (
	// PhaseDamping decays coherences without changing populations; it models
	// anxious scrambling of emotional clarity.
	PhaseDamping ChannelKind = "phase_damping"

	// AmplitudeDamping drives populations toward the ground state while also
	// decaying coherences; it models depressive energy loss toward baseline.
	AmplitudeDamping ChannelKind = "amplitude_damping"
)

// DensityMatrix is a possibly-mixed quantum state: a Hermitian, trace-1,
// positive semi-definite 2^N x 2^N matrix stored flattened row-major.
// It is created lazily from a pure state the first time a noise channel is
// applied; once mixed, evolution never reverts to a pure vector.
type DensityMatrix struct {
	qubits int
	dim    int
	rho    []complex128
}

// newDensityFromPure builds rho = |psi><psi|, consuming the pure view.
func newDensityFromPure(s *State) *DensityMatrix {
	dim := len(s.amps)
	d := &DensityMatrix{
		qubits: s.qubits,
		dim:    dim,
		rho:    make([]complex128, dim*dim),
	}
	d.forRows(func(lo, hi int) {
		for r := lo; r < hi; r++ {
			base := r * dim
			ar := s.amps[r]
			for c := 0; c < dim; c++ {
				d.rho[base+c] = ar * cmplx.Conj(s.amps[c])
			}
		}
	})
	return d
}

// krausPair returns the two 2x2 Kraus operators for the channel at rate r.
func krausPair(kind ChannelKind, rate float64) ([2][2][2]complex128, error) {
	keep := complex(math.Sqrt(1-rate), 0)
	leak := complex(math.Sqrt(rate), 0)

	var ks [2][2][2]complex128
	switch kind {
	case PhaseDamping:
		ks[0] = [2][2]complex128{{1, 0}, {0, keep}}
		ks[1] = [2][2]complex128{{0, 0}, {0, leak}}
	case AmplitudeDamping:
		ks[0] = [2][2]complex128{{1, 0}, {0, keep}}
		ks[1] = [2][2]complex128{{0, leak}, {0, 0}}
	default:
		return ks, fmt.Errorf("%w: unknown channel %q", ErrInvalidRate, kind)
	}
	return ks, nil
}

// applyChannel applies rho' = sum_k K_k rho K_k† on the given qubit using
// the same bit-pairing technique as single-qubit gates, generalized from
// vector amplitudes to 2x2 matrix blocks over row and column pairs.
func (d *DensityMatrix) applyChannel(qubit int, rate float64, kind ChannelKind) error {
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%w: rate %v outside [0, 1]", ErrInvalidRate, rate)
	}
	if qubit < 0 || qubit >= d.qubits {
		return fmt.Errorf("%w: qubit %d on %d-qubit register", ErrInvalidTarget, qubit, d.qubits)
	}
	if rate == 0 {
		// No-op by contract; the state is already mixed by this point.
		return nil
	}

	ks, err := krausPair(kind, rate)
	if err != nil {
		return err
	}

	mask := 1 << qubit
	d.forRows(func(lo, hi int) {
		for r := lo; r < hi; r++ {
			if r&mask != 0 {
				continue
			}
			r1 := r | mask
			for c := 0; c < d.dim; c++ {
				if c&mask != 0 {
					continue
				}
				c1 := c | mask

				b := [2][2]complex128{
					{d.rho[r*d.dim+c], d.rho[r*d.dim+c1]},
					{d.rho[r1*d.dim+c], d.rho[r1*d.dim+c1]},
				}

				var out [2][2]complex128
				for _, k := range ks {
					// t = K * b
					var t [2][2]complex128
					for i := 0; i < 2; i++ {
						for j := 0; j < 2; j++ {
							t[i][j] = k[i][0]*b[0][j] + k[i][1]*b[1][j]
						}
					}
					// out += t * K†
					for i := 0; i < 2; i++ {
						for j := 0; j < 2; j++ {
							out[i][j] += t[i][0]*cmplx.Conj(k[j][0]) + t[i][1]*cmplx.Conj(k[j][1])
						}
					}
				}

				d.rho[r*d.dim+c] = out[0][0]
				d.rho[r*d.dim+c1] = out[0][1]
				d.rho[r1*d.dim+c] = out[1][0]
				d.rho[r1*d.dim+c1] = out[1][1]
			}
		}
	})

	return d.rebalanceTrace()
}

// apply evolves the mixed state under a unitary gate: rho' = U rho U†.
func (d *DensityMatrix) apply(g Gate) error {
	if g.Target < 0 || g.Target >= d.qubits {
		return fmt.Errorf("%w: target %d on %d-qubit register", ErrInvalidTarget, g.Target, d.qubits)
	}
	if g.controlled() {
		if g.Control < 0 || g.Control >= d.qubits {
			return fmt.Errorf("%w: control %d on %d-qubit register", ErrInvalidTarget, g.Control, d.qubits)
		}
		if g.Control == g.Target {
			return fmt.Errorf("%w: control and target must differ", ErrInvalidTarget)
		}
	}

	switch g.Kind {
	case GateCNOT:
		d.applyCNOT(g.Control, g.Target)
	case GateCRZ:
		m, err := g.matrix()
		if err != nil {
			return err
		}
		d.applyControlledPhase(g.Control, g.Target, m)
	default:
		m, err := g.matrix()
		if err != nil {
			return err
		}
		// A unitary is a single-element Kraus set; reuse the block transform.
		d.applySingleUnitary(g.Target, m)
	}

	return d.rebalanceTrace()
}

// applySingleUnitary conjugates each 2x2 block on the target qubit by U.
func (d *DensityMatrix) applySingleUnitary(target int, u [2][2]complex128) {
	mask := 1 << target
	d.forRows(func(lo, hi int) {
		for r := lo; r < hi; r++ {
			if r&mask != 0 {
				continue
			}
			r1 := r | mask
			for c := 0; c < d.dim; c++ {
				if c&mask != 0 {
					continue
				}
				c1 := c | mask

				b := [2][2]complex128{
					{d.rho[r*d.dim+c], d.rho[r*d.dim+c1]},
					{d.rho[r1*d.dim+c], d.rho[r1*d.dim+c1]},
				}

				var t, out [2][2]complex128
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						t[i][j] = u[i][0]*b[0][j] + u[i][1]*b[1][j]
					}
				}
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						out[i][j] = t[i][0]*cmplx.Conj(u[j][0]) + t[i][1]*cmplx.Conj(u[j][1])
					}
				}

				d.rho[r*d.dim+c] = out[0][0]
				d.rho[r*d.dim+c1] = out[0][1]
				d.rho[r1*d.dim+c] = out[1][0]
				d.rho[r1*d.dim+c1] = out[1][1]
			}
		}
	})
}

// applyCNOT permutes rows then columns: the basis index swaps its target
// bit wherever the control bit is set.
func (d *DensityMatrix) applyCNOT(control, target int) {
	cmask := 1 << control
	tmask := 1 << target

	// Rows.
	d.forRows(func(lo, hi int) {
		for r := lo; r < hi; r++ {
			if r&cmask == 0 || r&tmask != 0 {
				continue
			}
			r1 := r | tmask
			for c := 0; c < d.dim; c++ {
				d.rho[r*d.dim+c], d.rho[r1*d.dim+c] = d.rho[r1*d.dim+c], d.rho[r*d.dim+c]
			}
		}
	})
	// Columns.
	d.forRows(func(lo, hi int) {
		for r := lo; r < hi; r++ {
			base := r * d.dim
			for c := 0; c < d.dim; c++ {
				if c&cmask == 0 || c&tmask != 0 {
					continue
				}
				c1 := c | tmask
				d.rho[base+c], d.rho[base+c1] = d.rho[base+c1], d.rho[base+c]
			}
		}
	})
}

// applyControlledPhase multiplies rho[i][j] by u(i) * conj(u(j)) where u is
// the diagonal CRZ unitary.
func (d *DensityMatrix) applyControlledPhase(control, target int, m [2][2]complex128) {
	cmask := 1 << control
	tmask := 1 << target

	phase := func(i int) complex128 {
		if i&cmask == 0 {
			return 1
		}
		if i&tmask == 0 {
			return m[0][0]
		}
		return m[1][1]
	}

	d.forRows(func(lo, hi int) {
		for r := lo; r < hi; r++ {
			pr := phase(r)
			base := r * d.dim
			for c := 0; c < d.dim; c++ {
				d.rho[base+c] *= pr * cmplx.Conj(phase(c))
			}
		}
	})
}

// trace returns the real trace of rho.
func (d *DensityMatrix) trace() float64 {
	t := 0.0
	for i := 0; i < d.dim; i++ {
		t += real(d.rho[i*d.dim+i])
	}
	return t
}

// rebalanceTrace absorbs rounding drift in the trace, failing loudly on
// deviations large enough to indicate a broken channel or gate.
func (d *DensityMatrix) rebalanceTrace() error {
	t := d.trace()
	dev := math.Abs(t - 1)
	if dev <= renormEpsilon {
		return nil
	}
	if dev > normFaultTolerance {
		return fmt.Errorf("%w: trace %.6f after operation", ErrNormalizationFault, t)
	}
	inv := complex(1/t, 0)
	for i := range d.rho {
		d.rho[i] *= inv
	}
	return nil
}

// forRows chunks a row-range worker across goroutines for large matrices.
// Row pairs are always processed from the pair's lower index (the one with
// the qubit bit clear), so no two workers ever write the same row.
func (d *DensityMatrix) forRows(work func(lo, hi int)) {
	if d.dim*d.dim < parallelDim {
		work(0, d.dim)
		return
	}

	workers := runtime.NumCPU()
	if workers > d.dim {
		workers = d.dim
	}
	chunk := d.dim / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if w == workers-1 {
			hi = d.dim
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			work(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
