package quantum

import "errors"

// Error taxonomy for the affect engine.
//
// The Invalid* errors are caller-input errors: they are raised eagerly,
// before any state mutation, so a partially-applied evolution is never
// observable. ErrNormalizationFault and ErrEntropyComputation indicate an
// internal numerical invariant was violated; they are fatal for the engine
// instance and the owning service should reset it.
var (
	// ErrInvalidDimension is returned when a qubit count is zero or exceeds
	// MaxQubits.
	ErrInvalidDimension = errors.New("invalid qubit dimension")

	// ErrInvalidTarget is returned when a gate references a qubit index
	// outside the register, or a controlled gate targets its own control.
	ErrInvalidTarget = errors.New("invalid gate target")

	// ErrUnknownGate is returned for gate kinds outside the fixed gate set.
	ErrUnknownGate = errors.New("unknown gate kind")

	// ErrMissingParameter is returned when a rotation gate lacks its angle.
	ErrMissingParameter = errors.New("missing gate parameter")

	// ErrInvalidRate is returned when a noise channel rate is outside [0, 1].
	ErrInvalidRate = errors.New("invalid channel rate")

	// ErrInvalidParameter is returned when need or trait inputs are outside
	// their domains (needs in [0, 100], traits in [0, 1]).
	ErrInvalidParameter = errors.New("invalid evolution parameter")

	// ErrNormalizationFault signals that the state norm drifted beyond what
	// floating accumulation can explain. The state is corrupt.
	ErrNormalizationFault = errors.New("state normalization fault")

	// ErrEntropyComputation signals that the reduced density matrix
	// eigenvalues do not sum to one within tolerance, indicating upstream
	// corruption.
	ErrEntropyComputation = errors.New("entropy computation fault")
)
