package feed

// State is the fetch state of a [Controller].
type State int

const (
	StateIdle State = iota
	StateLoadingFirst
	StateLoadingNext
	StateError
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingFirst:
		return "loading_first"
	case StateLoadingNext:
		return "loading_next"
	case StateError:
		return "error"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Loading reports whether a fetch is outstanding.
func (s State) Loading() bool {
	return s == StateLoadingFirst || s == StateLoadingNext
}
