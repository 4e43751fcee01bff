package host

import (
	"slices"
	"sync"
)

type listener struct {
	id int
	h  Handler
}

// Listeners is a registry of event handlers keyed by event name.
// Hosts embed it to implement Runtime.Listen. Handlers for one name run
// in registration order, followed by the "*" handlers.
type Listeners struct {
	mu     sync.RWMutex
	nextID int
	byName map[string][]listener
}

// Add registers h under name and returns a function that removes it.
func (l *Listeners) Add(name string, h Handler) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.byName == nil {
		l.byName = make(map[string][]listener)
	}
	id := l.nextID
	l.nextID++
	l.byName[name] = append(l.byName[name], listener{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.byName[name] = slices.DeleteFunc(l.byName[name], func(x listener) bool { return x.id == id })
			if len(l.byName[name]) == 0 {
				delete(l.byName, name)
			}
		})
	}
}

// Dispatch calls every handler registered for e.Name and for "*".
func (l *Listeners) Dispatch(e Event) {
	l.mu.RLock()
	handlers := make([]Handler, 0, len(l.byName[e.Name])+len(l.byName["*"]))
	for _, x := range l.byName[e.Name] {
		handlers = append(handlers, x.h)
	}
	for _, x := range l.byName["*"] {
		handlers = append(handlers, x.h)
	}
	l.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
