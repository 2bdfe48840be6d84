package rowcheck

type Emitter interface {
	// adds a subscriber to its topics
	Subscribe(Subscriber)
	// dispatch an event to the subscribers of its type
	Emit(e Event) error
}

type eventEmitter struct {
	// Map of event types and its subscribers
	subs map[EventType][]Subscriber
}

func NewEmitter() *eventEmitter {
	return &eventEmitter{subs: make(map[EventType][]Subscriber)}
}

func (m *eventEmitter) Subscribe(sub Subscriber) {
	for _, t := range sub.Events {
		m.subs[t] = append(m.subs[t], sub)
	}
}

// Subscribers are called in subscription order. The first error stops
// the dispatch
func (m *eventEmitter) Emit(e Event) error {
	for _, s := range m.subs[e.Type] {
		if err := s.Handle(e); err != nil {
			return err
		}
	}
	return nil
}
