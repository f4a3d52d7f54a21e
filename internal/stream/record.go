package stream

// Kind is the event name of a client record
type Kind string

const (
	KindProgress    Kind = "progress"
	KindToken       Kind = "token"
	KindFinalResult Kind = "final_result"
	KindError       Kind = "error"
	KindEnd         Kind = "end"
)

// Progress messages shown to the client
const (
	ProgressQueries   = "Analyzed the claim..."
	ProgressSearching = "Searching for sources..."
	ProgressGathered  = "Gathered %d Sources..."
	ProgressAnalyzing = "Analyzing evidence..."
)

// Record is one client-facing message: {"event": kind, "data": payload}.
// The end record carries no data.
type Record struct {
	Event Kind `json:"event"`
	Data  any  `json:"data,omitempty"`
}

// End is the record that closes every stream
var End = Record{Event: KindEnd}

// Sink delivers records to a client
type Sink interface {
	Send(rec Record) error
}
