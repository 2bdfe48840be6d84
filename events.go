package rowcheck

// Events fired by the engine while it reads sources. Subscribers pick
// the types they care about
type EventType uint8

const (
	// Fires on every row pulled
	ROW_EVENT EventType = iota
	// Fires on rows that did not pass
	INVALID_EVENT
	// Fires once a source has been read
	SOURCE_EVENT
)

type Event struct {
	Type   EventType
	Source string
	Index  int
	Row    Row
	// Set on invalid rows
	Err *RowError
	// Set on source events
	Summary *Summary
}

// The outcome of reading a whole source
type Summary struct {
	Source  string
	Rows    int
	Invalid int
	// Set when the underlying stream failed
	Err error
}

// Handles events of the listed types
type Subscriber struct {
	Events []EventType
	Handle func(Event) error
}
