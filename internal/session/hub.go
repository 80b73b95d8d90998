package session

import (
	"sync"

	"petguard/internal/ports/auth"
)

// Hub reparte eventos de sesión a los suscriptores.
// Es solo observacional: no decide navegación (eso vive en los guards).
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(auth.Event)
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]func(auth.Event))}
}

// Subscribe registra handler y devuelve la función para desuscribirse (idempotente).
func (h *Hub) Subscribe(handler func(auth.Event)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish llama a los handlers en el goroutine del publicador, fuera del lock.
func (h *Hub) Publish(ev auth.Event) {
	h.mu.RLock()
	handlers := make([]func(auth.Event), 0, len(h.subs))
	for _, fn := range h.subs {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
