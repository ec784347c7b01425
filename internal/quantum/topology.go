package quantum

// Role classifies a qubit's function in the affect model.
type Role int

const (
	// RoleReactive qubits carry the fast emotional response; they receive
	// both longitudinal and transverse Hamiltonian terms and the noise
	// channels.
	RoleReactive Role = iota

	// RoleRegulatory qubits act as controls over reactive qubits in the
	// CRZ regulation steps.
	RoleRegulatory

	// RoleContextual qubits couple weakly to all reactive qubits, carrying
	// slow background context.
	RoleContextual
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RoleReactive:
		return "reactive"
	case RoleRegulatory:
		return "regulatory"
	case RoleContextual:
		return "contextual"
	}
	return "unknown"
}

// Coupling is one directed edge in the coupling graph. Control is the CRZ
// control qubit, Target the rotated qubit, and Weight scales the coupling
// coefficient for this edge.
type Coupling struct {
	Control int
	Target  int
	Weight  float64
}

// contextualWeight attenuates contextual-to-reactive edges relative to the
// reactive backbone.
const contextualWeight = 0.5

// Topology is the fixed role assignment and coupling graph for one register
// size. It is pure data: derived deterministically from the qubit count,
// with no randomness and no state.
type Topology struct {
	Roles     []Role
	Couplings []Coupling
}

// NewTopology derives the topology for a register. Qubits 0 and 1 are
// reactive; higher indices alternate regulatory and contextual as the
// register grows. The coupling list order is fixed because the Trotter
// evolver replays it verbatim each step.
func NewTopology(qubits int) Topology {
	roles := make([]Role, qubits)
	for q := 0; q < qubits; q++ {
		switch {
		case q < 2:
			roles[q] = RoleReactive
		case (q-2)%2 == 0:
			roles[q] = RoleRegulatory
		default:
			roles[q] = RoleContextual
		}
	}

	var reactive []int
	for q, r := range roles {
		if r == RoleReactive {
			reactive = append(reactive, q)
		}
	}

	var couplings []Coupling

	// Reactive backbone: pairwise coupling at full weight.
	for i := 0; i < len(reactive); i++ {
		for j := i + 1; j < len(reactive); j++ {
			couplings = append(couplings, Coupling{
				Control: reactive[i],
				Target:  reactive[j],
				Weight:  1.0,
			})
		}
	}

	// Each regulatory qubit controls exactly one reactive qubit,
	// assigned round-robin over the reactive set.
	ri := 0
	for q, r := range roles {
		if r != RoleRegulatory || len(reactive) == 0 {
			continue
		}
		couplings = append(couplings, Coupling{
			Control: q,
			Target:  reactive[ri%len(reactive)],
			Weight:  1.0,
		})
		ri++
	}

	// Contextual qubits couple to every reactive qubit at attenuated weight.
	for q, r := range roles {
		if r != RoleContextual {
			continue
		}
		for _, rq := range reactive {
			couplings = append(couplings, Coupling{
				Control: rq,
				Target:  q,
				Weight:  contextualWeight,
			})
		}
	}

	return Topology{Roles: roles, Couplings: couplings}
}

// Reactive returns the reactive qubit indices in ascending order.
func (t Topology) Reactive() []int {
	var out []int
	for q, r := range t.Roles {
		if r == RoleReactive {
			out = append(out, q)
		}
	}
	return out
}
