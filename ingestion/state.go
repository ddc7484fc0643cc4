package ingestion

// State identifies how far a run progressed. A run moves forward
// through the states in order and ends in StateDone or StateFailed.
type State uint8

const (
	StateInit State = iota
	StateLoading
	StateEmbedding
	StateWriting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateLoading:
		return "LOADING"
	case StateEmbedding:
		return "EMBEDDING"
	case StateWriting:
		return "WRITING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
