package quantum

import "fmt"

// Needs is the caller-supplied need vector, each component in [0, 100].
type Needs struct {
	Comfort     float64 `json:"comfort"`
	Stimulation float64 `json:"stimulation"`
	Connection  float64 `json:"connection"`
}

// Traits is the caller-supplied personality vector, each component in [0, 1].
type Traits struct {
	Anxiety    float64 `json:"anxiety"`
	Depression float64 `json:"depression"`
}

// Evolution schedule constants. The coefficient scales come from the
// behavioral calibration of the affect model; the step ordering below is a
// Trotter approximation over non-commuting terms and must be reproduced
// exactly for numerical parity.
const (
	// TrotterSteps is the fixed number of discretized time steps per
	// evolution.
	TrotterSteps = 5

	// trotterDt is the step size.
	trotterDt = 0.1

	// longitudinalScale converts comfort deficit into the RZ coefficient.
	longitudinalScale = 1.0

	// transverseScale converts stimulation into the RX coefficient.
	transverseScale = 1.5

	// couplingScale converts connection into the CRZ coefficient.
	couplingScale = 2.0

	// phaseDampingScale and amplitudeDampingScale keep per-step channel
	// rates small so a single step cannot collapse the state.
	phaseDampingScale     = 0.05
	amplitudeDampingScale = 0.05
)

// validateInputs rejects out-of-domain needs and traits before any state
// mutation, so a partially-applied evolution is never observable.
func validateInputs(needs Needs, traits Traits) error {
	check := func(name string, v, lo, hi float64) error {
		if v < lo || v > hi {
			return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidParameter, name, v, lo, hi)
		}
		return nil
	}
	for _, c := range []struct {
		name   string
		v      float64
		lo, hi float64
	}{
		{"comfort", needs.Comfort, 0, 100},
		{"stimulation", needs.Stimulation, 0, 100},
		{"connection", needs.Connection, 0, 100},
		{"anxiety", traits.Anxiety, 0, 1},
		{"depression", traits.Depression, 0, 1},
	} {
		if err := check(c.name, c.v, c.lo, c.hi); err != nil {
			return err
		}
	}
	return nil
}

// OptimizeState evolves the affect state under the need-parameterized
// Hamiltonian and returns the derived metrics.
//
// Each of the TrotterSteps steps applies, in fixed order:
//  1. longitudinal RZ(omega*dt) on every reactive qubit,
//  2. transverse RX(Omega*dt) on every reactive qubit,
//  3. coupling CRZ(J*w*dt) over every edge of the coupling graph,
//  4. phase damping at rate anxiety*phaseDampingScale on reactive qubits,
//  5. amplitude damping at rate depression*amplitudeDampingScale likewise.
//
// The ordering is part of the numerical contract: the Hamiltonian terms do
// not commute, so reordering changes the trajectory the downstream
// behavioral tuning was calibrated against.
func (e *Engine) OptimizeState(needs Needs, traits Traits) (Metrics, error) {
	if err := validateInputs(needs, traits); err != nil {
		return Metrics{}, err
	}

	omega := (1 - needs.Comfort/100) * longitudinalScale
	transverse := (needs.Stimulation / 100) * transverseScale
	coupling := (needs.Connection / 100) * couplingScale

	phaseRate := traits.Anxiety * phaseDampingScale
	amplitudeRate := traits.Depression * amplitudeDampingScale

	reactive := e.topo.Reactive()

	e.energyHistory = e.energyHistory[:0]
	e.phaseRate = phaseRate
	e.amplitudeRate = amplitudeRate

	for step := 0; step < TrotterSteps; step++ {
		for _, q := range reactive {
			if err := e.ApplyGate(RotZ(q, omega*trotterDt)); err != nil {
				return Metrics{}, err
			}
		}
		for _, q := range reactive {
			if err := e.ApplyGate(RotX(q, transverse*trotterDt)); err != nil {
				return Metrics{}, err
			}
		}
		for _, edge := range e.topo.Couplings {
			if err := e.ApplyGate(CRZ(edge.Control, edge.Target, coupling*edge.Weight*trotterDt)); err != nil {
				return Metrics{}, err
			}
		}
		if traits.Anxiety > 0 {
			for _, q := range reactive {
				if err := e.ApplyChannel(q, phaseRate, PhaseDamping); err != nil {
					return Metrics{}, err
				}
			}
		}
		if traits.Depression > 0 {
			for _, q := range reactive {
				if err := e.ApplyChannel(q, amplitudeRate, AmplitudeDamping); err != nil {
					return Metrics{}, err
				}
			}
		}

		e.energyHistory = append(e.energyHistory, e.energy())
	}

	return e.ComputeMetrics()
}
