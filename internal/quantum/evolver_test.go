package quantum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeState_InputValidation(t *testing.T) {
	tests := []struct {
		name   string
		needs  Needs
		traits Traits
	}{
		{name: "comfort below range", needs: Needs{Comfort: -1, Stimulation: 50, Connection: 50}},
		{name: "comfort above range", needs: Needs{Comfort: 101, Stimulation: 50, Connection: 50}},
		{name: "stimulation above range", needs: Needs{Comfort: 50, Stimulation: 150, Connection: 50}},
		{name: "connection below range", needs: Needs{Comfort: 50, Stimulation: 50, Connection: -5}},
		{name: "anxiety above range", needs: Needs{Comfort: 50, Stimulation: 50, Connection: 50}, traits: Traits{Anxiety: 1.2}},
		{name: "depression below range", needs: Needs{Comfort: 50, Stimulation: 50, Connection: 50}, traits: Traits{Depression: -0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(3)
			require.NoError(t, err)

			_, err = e.OptimizeState(tt.needs, tt.traits)
			require.ErrorIs(t, err, ErrInvalidParameter)

			// Validation is atomic: the state must be untouched.
			assert.False(t, e.Mixed())
			assert.Equal(t, complex128(1), e.pure.amps[0])
		})
	}
}

func TestOptimizeState_HighComfortSuppressesEnergy(t *testing.T) {
	e, err := NewEngine(3)
	require.NoError(t, err)

	m, err := e.OptimizeState(
		Needs{Comfort: 100, Stimulation: 0, Connection: 0},
		Traits{},
	)
	require.NoError(t, err)

	// No transverse drive and no comfort deficit: the register never
	// leaves the ground state.
	assert.LessOrEqual(t, m.Energy, 1e-9)
	assert.InDelta(t, 0, m.Entropy, 1e-9)
}

func TestOptimizeState_EnergyMonotonicInStimulation(t *testing.T) {
	prev := -1.0
	for _, stim := range []float64{0, 20, 40, 60, 80, 100} {
		e, err := NewEngine(3)
		require.NoError(t, err)

		m, err := e.OptimizeState(
			Needs{Comfort: 100, Stimulation: stim, Connection: 0},
			Traits{},
		)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, m.Energy+1e-12, prev,
			"energy must not decrease as stimulation rises (stim=%v)", stim)
		prev = m.Energy
	}
}

func TestOptimizeState_NoCouplingKeepsProductState(t *testing.T) {
	e, err := NewEngine(4)
	require.NoError(t, err)

	// Transverse-free, coupling-free evolution only accumulates local
	// phases: no entanglement is generated across the bipartition.
	m, err := e.OptimizeState(
		Needs{Comfort: 20, Stimulation: 0, Connection: 0},
		Traits{},
	)
	require.NoError(t, err)
	assert.InDelta(t, 0, m.Entropy, 1e-9)
}

func TestOptimizeState_TraitsPromoteToMixedState(t *testing.T) {
	e, err := NewEngine(3)
	require.NoError(t, err)

	_, err = e.OptimizeState(
		Needs{Comfort: 50, Stimulation: 60, Connection: 40},
		Traits{Anxiety: 0.7, Depression: 0.3},
	)
	require.NoError(t, err)
	assert.True(t, e.Mixed(), "non-zero traits must promote to a density matrix")

	// Once mixed, a follow-up evolution stays mixed even with zero traits.
	_, err = e.OptimizeState(
		Needs{Comfort: 50, Stimulation: 60, Connection: 40},
		Traits{},
	)
	require.NoError(t, err)
	assert.True(t, e.Mixed())
}

func TestOptimizeState_ResonanceBoundsAtExtremes(t *testing.T) {
	tests := []struct {
		name   string
		needs  Needs
		traits Traits
	}{
		{name: "all needs maxed", needs: Needs{Comfort: 100, Stimulation: 100, Connection: 100}},
		{name: "all needs zero", needs: Needs{}},
		{name: "maxed needs and traits", needs: Needs{Comfort: 100, Stimulation: 100, Connection: 100}, traits: Traits{Anxiety: 1, Depression: 1}},
		{name: "zero needs maxed traits", needs: Needs{}, traits: Traits{Anxiety: 1, Depression: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(3)
			require.NoError(t, err)

			m, err := e.OptimizeState(tt.needs, tt.traits)
			require.NoError(t, err)

			for band, v := range m.Resonance {
				assert.GreaterOrEqual(t, v, 0.0, "band %d", band)
				assert.LessOrEqual(t, v, 1.0, "band %d", band)
			}
			assert.GreaterOrEqual(t, m.Stability, 0.0)
			assert.LessOrEqual(t, m.Stability, 1.0)
			assert.GreaterOrEqual(t, m.Energy, 0.0)
			assert.LessOrEqual(t, m.Energy, 1.0)
		})
	}
}

func TestOptimizeState_CalmBaselineIsStable(t *testing.T) {
	e, err := NewEngine(3)
	require.NoError(t, err)

	m, err := e.OptimizeState(
		Needs{Comfort: 100, Stimulation: 0, Connection: 0},
		Traits{},
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m.Stability, 1e-9,
		"fully comforted, undamped ground state should score maximal stability")
}

func TestOptimizeState_RepeatedCallsAccumulate(t *testing.T) {
	// The state buffer persists across calls: the simulation is
	// long-running, not reset per interaction.
	e, err := NewEngine(3)
	require.NoError(t, err)

	needs := Needs{Comfort: 100, Stimulation: 70, Connection: 0}
	first, err := e.OptimizeState(needs, Traits{})
	require.NoError(t, err)

	second, err := e.OptimizeState(needs, Traits{})
	require.NoError(t, err)

	assert.Greater(t, second.Energy, first.Energy,
		"continued transverse drive should keep exciting the register")
}

func TestComputeMetrics_BellStateEntropy(t *testing.T) {
	e, err := NewEngine(2)
	require.NoError(t, err)
	require.NoError(t, e.ApplyGate(Hadamard(0)))
	require.NoError(t, e.ApplyGate(CNOT(0, 1)))

	m, err := e.ComputeMetrics()
	require.NoError(t, err)

	// Maximally entangled pair: one full bit of entanglement entropy.
	assert.InDelta(t, 1.0, m.Entropy, 1e-6)
}

func TestComputeMetrics_GroundStateBaseline(t *testing.T) {
	e, err := NewEngine(4)
	require.NoError(t, err)

	m, err := e.ComputeMetrics()
	require.NoError(t, err)

	assert.InDelta(t, 0, m.Energy, 1e-12)
	assert.InDelta(t, 0, m.Entropy, 1e-9)
}

func TestComputeMetrics_EntropyFaultOnCorruptedState(t *testing.T) {
	// Eigenvalues of the reduced matrix must sum to one; a corrupted
	// amplitude buffer surfaces as an entropy fault, pure or mixed.
	e, err := NewEngine(2)
	require.NoError(t, err)
	e.pure.amps[0] = complex(2, 0)

	_, err = e.ComputeMetrics()
	assert.ErrorIs(t, err, ErrEntropyComputation)

	e, err = NewEngine(2)
	require.NoError(t, err)
	require.NoError(t, e.ApplyChannel(0, 0.1, PhaseDamping))
	e.mixed.rho[0] = complex(3, 0)

	_, err = e.ComputeMetrics()
	assert.ErrorIs(t, err, ErrEntropyComputation)
}
