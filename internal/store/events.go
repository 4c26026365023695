package store

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
	OpReset   Op = "reset"
)

// Event describes one committed mutation. Collection and ID are empty for
// OpReset.
type Event struct {
	Collection string `json:"collection"`
	Op         Op     `json:"op"`
	ID         string `json:"id"`
}

// Subscribe registers a listener for committed mutations. Events are dropped
// for a listener whose buffer is full. The returned func unregisters it and
// closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

func (s *Store) publish(e Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
