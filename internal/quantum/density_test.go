package quantum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyChannel_RateValidation(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		kind ChannelKind
		err  error
	}{
		{name: "negative rate", rate: -0.1, kind: PhaseDamping, err: ErrInvalidRate},
		{name: "rate above one", rate: 1.5, kind: AmplitudeDamping, err: ErrInvalidRate},
		{name: "unknown kind", rate: 0.2, kind: "bit_flip", err: ErrInvalidRate},
		{name: "boundary zero", rate: 0, kind: PhaseDamping},
		{name: "boundary one", rate: 1, kind: AmplitudeDamping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(2)
			require.NoError(t, err)
			got := e.ApplyChannel(0, tt.rate, tt.kind)
			if tt.err != nil {
				assert.ErrorIs(t, got, tt.err)
				assert.False(t, e.Mixed(), "failed channel must not promote the state")
			} else {
				assert.NoError(t, got)
				assert.True(t, e.Mixed())
			}
		})
	}
}

func TestApplyChannel_ZeroRateIsNoOp(t *testing.T) {
	e, err := NewEngine(2)
	require.NoError(t, err)
	require.NoError(t, e.ApplyGate(Hadamard(0)))
	require.NoError(t, e.ApplyGate(CRZ(0, 1, 0.8)))

	// Promote with a real channel first so we can compare matrices.
	require.NoError(t, e.ApplyChannel(0, 0.3, PhaseDamping))
	before := make([]complex128, len(e.mixed.rho))
	copy(before, e.mixed.rho)

	require.NoError(t, e.ApplyChannel(0, 0, PhaseDamping))
	require.NoError(t, e.ApplyChannel(1, 0, AmplitudeDamping))

	assert.Equal(t, before, e.mixed.rho, "rate-0 channel must leave the density matrix untouched")
}

func TestTraceFaultOnCorruptedDensityMatrix(t *testing.T) {
	e, err := NewEngine(2)
	require.NoError(t, err)
	require.NoError(t, e.ApplyChannel(0, 0.1, PhaseDamping))

	// A trace this far from one cannot come from rounding drift.
	e.mixed.rho[0] = complex(3, 0)

	assert.ErrorIs(t, e.ApplyGate(Hadamard(0)), ErrNormalizationFault)
	assert.ErrorIs(t, e.ApplyChannel(0, 0.1, PhaseDamping), ErrNormalizationFault)
}

func TestPhaseDamping_DecaysCoherencesOnly(t *testing.T) {
	e, err := NewEngine(1)
	require.NoError(t, err)
	require.NoError(t, e.ApplyGate(Hadamard(0)))

	require.NoError(t, e.ApplyChannel(0, 0.4, PhaseDamping))

	// Populations untouched.
	assert.InDelta(t, 0.5, real(e.mixed.rho[0]), 1e-9)
	assert.InDelta(t, 0.5, real(e.mixed.rho[3]), 1e-9)
	// Off-diagonals scaled by sqrt(1-r).
	want := 0.5 * math.Sqrt(1-0.4)
	assert.InDelta(t, want, real(e.mixed.rho[1]), 1e-9)
	assert.InDelta(t, want, real(e.mixed.rho[2]), 1e-9)
}

func TestAmplitudeDamping_TransfersPopulationToGround(t *testing.T) {
	e, err := NewEngine(1)
	require.NoError(t, err)
	// Excite fully: |1>.
	require.NoError(t, e.ApplyGate(PauliX(0)))

	require.NoError(t, e.ApplyChannel(0, 0.25, AmplitudeDamping))

	// rho_00 gains r of the excited population, rho_11 keeps 1-r.
	assert.InDelta(t, 0.25, real(e.mixed.rho[0]), 1e-9)
	assert.InDelta(t, 0.75, real(e.mixed.rho[3]), 1e-9)
	// Trace stays one.
	assert.InDelta(t, 1.0, e.mixed.trace(), 1e-9)
}

func TestAmplitudeDamping_FullRateCollapsesToGround(t *testing.T) {
	e, err := NewEngine(1)
	require.NoError(t, err)
	require.NoError(t, e.ApplyGate(PauliX(0)))
	require.NoError(t, e.ApplyChannel(0, 1, AmplitudeDamping))

	assert.InDelta(t, 1.0, real(e.mixed.rho[0]), 1e-9)
	assert.InDelta(t, 0.0, real(e.mixed.rho[3]), 1e-9)
}

func TestMixedEvolution_MatchesPureForUnitaries(t *testing.T) {
	// Promoting with a rate-0-equivalent channel and then applying gates
	// must produce rho = |psi><psi| of the equivalent pure evolution.
	pure, err := NewEngine(2)
	require.NoError(t, err)
	mixed, err := NewEngine(2)
	require.NoError(t, err)
	require.NoError(t, mixed.ApplyChannel(0, 0, PhaseDamping))
	require.True(t, mixed.Mixed())

	gates := []Gate{Hadamard(0), RotX(1, 0.6), CNOT(0, 1), CRZ(1, 0, 1.1), PauliX(0)}
	for _, g := range gates {
		require.NoError(t, pure.ApplyGate(g))
		require.NoError(t, mixed.ApplyGate(g))
	}

	dim := len(pure.pure.amps)
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			want := pure.pure.amps[r] * complex(real(pure.pure.amps[c]), -imag(pure.pure.amps[c]))
			got := mixed.mixed.rho[r*dim+c]
			assert.InDelta(t, real(want), real(got), 1e-9)
			assert.InDelta(t, imag(want), imag(got), 1e-9)
		}
	}
}

func TestPromotion_IsPermanent(t *testing.T) {
	e, err := NewEngine(2)
	require.NoError(t, err)
	require.NoError(t, e.ApplyChannel(1, 0.1, PhaseDamping))
	require.True(t, e.Mixed())
	require.Nil(t, e.pure, "pure representation must be released on promotion")

	// Subsequent gates stay on the density matrix.
	require.NoError(t, e.ApplyGate(Hadamard(0)))
	assert.True(t, e.Mixed())
}
