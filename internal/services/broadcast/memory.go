package broadcast

import (
	"context"
	"sync"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/interfaces"
)

const hubBuffer = 64

// Hub - шина уведомлений внутри одного процесса (режим DISPLAY_ROLE=both и тесты).
type Hub struct {
	mu        sync.RWMutex
	listeners map[int]chan models.StateNotice
	nextID    int
	closed    bool
}

var _ interfaces.Broadcaster = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{listeners: make(map[int]chan models.StateNotice)}
}

// Publish не блокируется: при переполненном буфере слушателя уведомление для него теряется,
// поллер общего состояния все равно заметит изменение.
func (h *Hub) Publish(_ context.Context, notice models.StateNotice) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrClosed
	}
	for _, ch := range h.listeners {
		select {
		case ch <- notice:
		default:
		}
	}
	return nil
}

func (h *Hub) Listen(ctx context.Context, handler func(models.StateNotice)) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	id := h.nextID
	h.nextID++
	ch := make(chan models.StateNotice, hubBuffer)
	h.listeners[id] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if _, ok := h.listeners[id]; ok {
			delete(h.listeners, id)
			close(ch)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			handler(n)
		}
	}
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for id, ch := range h.listeners {
		close(ch)
		delete(h.listeners, id)
	}
	return nil
}

// Nop - шина без доставки (BROADCAST_DRIVER=none): остается только опрос хранилища.
type Nop struct{}

var _ interfaces.Broadcaster = Nop{}

func (Nop) Publish(context.Context, models.StateNotice) error { return nil }

func (Nop) Listen(ctx context.Context, _ func(models.StateNotice)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (Nop) Close() error { return nil }
