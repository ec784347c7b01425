package quantum

import (
	"fmt"
	"math"
	"math/cmplx"
)

// GateKind identifies one operation in the fixed gate set.
type GateKind string

const (
	GateH    GateKind = "H"
	GateX    GateKind = "X"
	GateRX   GateKind = "RX"
	GateRY   GateKind = "RY"
	GateRZ   GateKind = "RZ"
	GateCNOT GateKind = "CNOT"
	GateCRZ  GateKind = "CRZ"
)

// Gate is an immutable single gate operation. Gates are value objects:
// they are consumed by ApplyGate and carry no state of their own.
// Theta is only meaningful for the rotation kinds (RX, RY, RZ, CRZ);
// Control only for the controlled kinds (CNOT, CRZ).
type Gate struct {
	Kind    GateKind
	Target  int
	Control int
	Theta   *float64
}

// Hadamard builds an H gate on target.
func Hadamard(target int) Gate {
	return Gate{Kind: GateH, Target: target}
}

// PauliX builds an X (bit flip) gate on target.
func PauliX(target int) Gate {
	return Gate{Kind: GateX, Target: target}
}

// RotX builds an RX(theta) rotation on target.
func RotX(target int, theta float64) Gate {
	return Gate{Kind: GateRX, Target: target, Theta: &theta}
}

// RotY builds an RY(theta) rotation on target.
func RotY(target int, theta float64) Gate {
	return Gate{Kind: GateRY, Target: target, Theta: &theta}
}

// RotZ builds an RZ(phi) rotation on target.
func RotZ(target int, phi float64) Gate {
	return Gate{Kind: GateRZ, Target: target, Theta: &phi}
}

// CNOT builds a controlled-NOT with the given control and target.
func CNOT(control, target int) Gate {
	return Gate{Kind: GateCNOT, Target: target, Control: control}
}

// CRZ builds a controlled RZ(phi) with the given control and target.
func CRZ(control, target int, phi float64) Gate {
	return Gate{Kind: GateCRZ, Target: target, Control: control, Theta: &phi}
}

// controlled reports whether the gate kind uses a control qubit.
func (g Gate) controlled() bool {
	return g.Kind == GateCNOT || g.Kind == GateCRZ
}

// matrix returns the 2x2 unitary for single-qubit kinds (and the target-side
// rotation for CRZ). Fails with ErrUnknownGate for unrecognized kinds and
// ErrMissingParameter when a rotation kind has no angle.
func (g Gate) matrix() ([2][2]complex128, error) {
	var m [2][2]complex128

	theta := 0.0
	switch g.Kind {
	case GateRX, GateRY, GateRZ, GateCRZ:
		if g.Theta == nil {
			return m, fmt.Errorf("%w: %s requires an angle", ErrMissingParameter, g.Kind)
		}
		theta = *g.Theta
	}

	switch g.Kind {
	case GateH:
		s := complex(1.0/math.Sqrt2, 0)
		m = [2][2]complex128{{s, s}, {s, -s}}
	case GateX, GateCNOT:
		m = [2][2]complex128{{0, 1}, {1, 0}}
	case GateRX:
		c := complex(math.Cos(theta/2), 0)
		s := complex(0, -math.Sin(theta/2))
		m = [2][2]complex128{{c, s}, {s, c}}
	case GateRY:
		c := complex(math.Cos(theta/2), 0)
		s := complex(math.Sin(theta/2), 0)
		m = [2][2]complex128{{c, -s}, {s, c}}
	case GateRZ, GateCRZ:
		m = [2][2]complex128{
			{cmplx.Exp(complex(0, -theta/2)), 0},
			{0, cmplx.Exp(complex(0, theta/2))},
		}
	default:
		return m, fmt.Errorf("%w: %q", ErrUnknownGate, g.Kind)
	}

	return m, nil
}
