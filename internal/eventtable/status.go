package eventtable

// Status is a live event's place in the lifecycle (spec.md §3 invariant 2).
// Transitions are monotone: Pending -> {Admitted, Suppressed, Terminal};
// Admitted -> Terminal; Suppressed -> Terminal. No backward transitions,
// except the single narrow exception in admission.Engine for artifact-wait
// reasons (spec.md §4.6).
type Status string

const (
	Pending    Status = "pending"
	Admitted   Status = "admitted"
	Suppressed Status = "suppressed"
	Terminal   Status = "terminal"
)

// CanTransition reports whether moving from -> to is allowed by the
// monotone lattice in spec.md §3 invariant 2, ignoring the artifact-wait
// exception (the engine, which knows the deny reason, enforces that).
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case Pending:
		return to == Admitted || to == Suppressed || to == Terminal
	case Admitted:
		return to == Terminal
	case Suppressed:
		return to == Terminal
	case Terminal:
		return false
	}
	return false
}
