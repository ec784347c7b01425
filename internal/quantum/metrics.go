package quantum

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Metrics is the value returned to callers after an evolution. The engine
// retains no reference to it after return.
type Metrics struct {
	Energy    float64    `json:"energy" msgpack:"energy"`
	Entropy   float64    `json:"entropy" msgpack:"entropy"`
	Resonance [3]float64 `json:"resonance" msgpack:"resonance"`
	Stability float64    `json:"stability" msgpack:"stability"`
}

const (
	// eigenSumTolerance bounds how far the reduced density matrix
	// eigenvalue sum may drift from 1 before the state is considered
	// corrupted.
	eigenSumTolerance = 1e-6

	// eigenCutoff drops eigenvalues too small to contribute to the
	// entropy sum without risking log underflow.
	eigenCutoff = 1e-12

	// varianceScale normalizes the energy-variance proxy into [0, 1]
	// for the stability blend.
	varianceScale = 0.05

	// Stability blend weights: mixedness dominates, damping and energy
	// jitter temper it.
	stabilityEntropyWeight  = 0.55
	stabilityDampingWeight  = 0.25
	stabilityVarianceWeight = 0.20
)

// ComputeMetrics derives energy, von Neumann entropy, resonance spectrum
// and the composite stability score from the current state.
func (e *Engine) ComputeMetrics() (Metrics, error) {
	entropy, err := e.entanglementEntropy()
	if err != nil {
		return Metrics{}, err
	}

	m := Metrics{
		Energy:    e.energy(),
		Entropy:   entropy,
		Resonance: e.resonance(),
	}
	m.Stability = e.stability(entropy)
	return m, nil
}

// energy is the distance from the ground state: 1 - |<0...0|psi>|^2 for a
// pure state, 1 - rho_00 for a mixed one.
func (e *Engine) energy() float64 {
	var p0 float64
	if e.mixed != nil {
		p0 = real(e.mixed.rho[0])
	} else {
		a := e.pure.amps[0]
		p0 = real(a)*real(a) + imag(a)*imag(a)
	}
	return clamp01(1 - p0)
}

// keptQubits is the size of the fixed entropy bipartition: the first
// ceil(N/2) qubits are kept, the rest traced out.
func (e *Engine) keptQubits() int {
	return (e.qubits + 1) / 2
}

// reducedDensity partial-traces the state over the high qubits, returning
// the reduced density matrix of the first keptQubits qubits (row-major).
func (e *Engine) reducedDensity() []complex128 {
	k := e.keptQubits()
	keepDim := 1 << k
	envDim := 1 << (e.qubits - k)

	red := make([]complex128, keepDim*keepDim)

	if e.mixed != nil {
		dim := e.mixed.dim
		for a := 0; a < keepDim; a++ {
			for b := 0; b < keepDim; b++ {
				var sum complex128
				for env := 0; env < envDim; env++ {
					r := env<<k | a
					c := env<<k | b
					sum += e.mixed.rho[r*dim+c]
				}
				red[a*keepDim+b] = sum
			}
		}
		return red
	}

	for a := 0; a < keepDim; a++ {
		for b := 0; b < keepDim; b++ {
			var sum complex128
			for env := 0; env < envDim; env++ {
				sum += e.pure.amps[env<<k|a] * cmplx.Conj(e.pure.amps[env<<k|b])
			}
			red[a*keepDim+b] = sum
		}
	}
	return red
}

// entanglementEntropy eigendecomposes the reduced density matrix and
// returns -sum(lambda * log2(lambda)).
//
// gonum's symmetric eigensolver works on real matrices, so the Hermitian
// reduced matrix is embedded as the real symmetric [[Re, -Im], [Im, Re]]
// block matrix, whose spectrum is the Hermitian spectrum with every
// eigenvalue doubled.
func (e *Engine) entanglementEntropy() (float64, error) {
	red := e.reducedDensity()
	d := 1 << e.keptQubits()

	emb := mat.NewSymDense(2*d, nil)
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			re := real(red[i*d+j])
			im := imag(red[i*d+j])
			emb.SetSym(i, j, re)
			emb.SetSym(d+i, d+j, re)
			// Upper-right block is -Im; SetSym writes the (j, d+i)
			// mirror automatically.
			emb.SetSym(i, d+j, -im)
			if i != j {
				emb.SetSym(j, d+i, im)
			}
		}
	}

	var es mat.EigenSym
	if !es.Factorize(emb, false) {
		return 0, fmt.Errorf("%w: eigendecomposition failed", ErrEntropyComputation)
	}
	vals := es.Values(nil)

	// Each Hermitian eigenvalue appears twice in the embedding, so the sum
	// should be 2 and the entropy sum must be halved.
	sum := floats.Sum(vals)
	if math.Abs(sum/2-1) > eigenSumTolerance {
		return 0, fmt.Errorf("%w: eigenvalue sum %.9f", ErrEntropyComputation, sum/2)
	}

	entropy := 0.0
	for _, v := range vals {
		if v < 0 {
			// Tiny negatives are floating error; clamp before the log.
			v = 0
		}
		if v > eigenCutoff {
			entropy -= v * math.Log2(v)
		}
	}
	return entropy / 2, nil
}

// resonance treats the amplitude magnitudes (populations, when mixed) as a
// discrete signal, takes its magnitude spectrum, and buckets it into three
// frequency bands normalized into [0, 1] - an RGB-like triple for the
// visualization layer.
func (e *Engine) resonance() [3]float64 {
	var signal []float64
	if e.mixed != nil {
		signal = make([]float64, e.mixed.dim)
		for i := 0; i < e.mixed.dim; i++ {
			signal[i] = real(e.mixed.rho[i*e.mixed.dim+i])
		}
	} else {
		signal = make([]float64, len(e.pure.amps))
		for i, a := range e.pure.amps {
			signal[i] = cmplx.Abs(a)
		}
	}

	fft := fourier.NewFFT(len(signal))
	coeffs := fft.Coefficients(nil, signal)

	spectrum := make([]float64, len(coeffs))
	for i, c := range coeffs {
		spectrum[i] = cmplx.Abs(c)
	}

	chunk := len(spectrum) / 3
	if chunk == 0 {
		chunk = 1
	}

	var out [3]float64
	for band := 0; band < 3; band++ {
		lo := band * chunk
		hi := lo + chunk
		if band == 2 {
			hi = len(spectrum)
		}
		if lo >= len(spectrum) {
			break
		}
		if hi > len(spectrum) {
			hi = len(spectrum)
		}
		mean := floats.Sum(spectrum[lo:hi]) / float64(hi-lo)
		out[band] = clamp01(mean * 2)
	}
	return out
}

// stability blends (1 - normalized entropy), a damping-rate penalty, and an
// energy-variance proxy over the last evolution's step history into a
// composite score in [0, 1].
func (e *Engine) stability(entropy float64) float64 {
	entropyNorm := clamp01(entropy / float64(e.keptQubits()))

	damping := clamp01((e.phaseRate + e.amplitudeRate) / (phaseDampingScale + amplitudeDampingScale))

	variance := 0.0
	if len(e.energyHistory) >= 2 {
		variance = clamp01(stat.Variance(e.energyHistory, nil) / varianceScale)
	}

	return clamp01(stabilityEntropyWeight*(1-entropyNorm) +
		stabilityDampingWeight*(1-damping) +
		stabilityVarianceWeight*(1-variance))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
