package event

// TargetKind distinguishes the three forms of Unsubscribe.
type TargetKind int

const (
	// TargetAll clears every registration on the subject.
	TargetAll TargetKind = iota
	// TargetID removes one observer id from every key.
	TargetID
	// TargetKey removes every observer registered for one key.
	TargetKey
)

// String returns the kind name.
func (k TargetKind) String() string {
	switch k {
	case TargetID:
		return "id"
	case TargetKey:
		return "key"
	default:
		return "all"
	}
}

// Target selects what Unsubscribe removes.
type Target struct {
	kind  TargetKind
	value string
}

// ByID targets the registrations of one observer id.
func ByID(id ObserverID) Target {
	return Target{kind: TargetID, value: string(id)}
}

// ByKey targets every registration for key.
func ByKey(key string) Target {
	return Target{kind: TargetKey, value: key}
}

// All targets the whole registry.
func All() Target {
	return Target{kind: TargetAll}
}

// ParseTarget resolves s by its format: the empty string targets the whole
// registry, strings with the generated id prefix target an observer id, and
// anything else is taken as an event key.
//
// An event key that itself starts with the id prefix is misread as an id;
// use ByKey for such keys.
func ParseTarget(s string) Target {
	switch {
	case s == "":
		return All()
	case IsObserverID(s):
		return ByID(ObserverID(s))
	default:
		return ByKey(s)
	}
}

// Kind returns the target kind.
func (t Target) Kind() TargetKind {
	return t.kind
}

// Value returns the id or key carried by the target.
func (t Target) Value() string {
	return t.value
}

// Result reports what Unsubscribe removed.
// Found is meaningful for TargetID, Count for TargetKey and TargetAll.
type Result struct {
	Kind  TargetKind
	Found bool
	Count int
}
