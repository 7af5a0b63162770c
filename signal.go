package craby

import (
	"sync"

	"go.uber.org/zap"

	"github.com/l2hyunwoo/craby/internal/logger"
)

// Signal is a payload-free notification channel with any number of
// listeners. Thread-safe for concurrent Subscribe, Remove and Emit.
//
// Example:
//
//	sub := progress.Subscribe(func() { fmt.Println("progress") })
//	defer sub.Remove()
//
//	progress.Emit()
type Signal struct {
	name   string
	logger *zap.Logger

	mu        sync.Mutex
	listeners map[uint64]func()
	nextID    uint64
}

// NewSignal creates a signal with no listeners.
func NewSignal(name string) *Signal {
	return &Signal{
		name:      name,
		logger:    logger.Named("signal"),
		listeners: make(map[uint64]func()),
	}
}

// Name returns the signal's declared name.
func (s *Signal) Name() string { return s.name }

// Subscribe registers fn and returns the handle that removes it.
func (s *Signal) Subscribe(fn func()) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return &Subscription{signal: s, id: id}
}

// Len returns the number of registered listeners.
func (s *Signal) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Emit calls every listener registered at the time of the call exactly once,
// each on its own goroutine. Emit never waits for listeners.
func (s *Signal) Emit() {
	s.mu.Lock()
	snapshot := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		snapshot = append(snapshot, fn)
	}
	s.mu.Unlock()

	for _, fn := range snapshot {
		go s.notify(fn)
	}
}

func (s *Signal) notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("listener panicked",
				zap.String(logger.FieldSignal, s.name),
				zap.Any("panic", r))
		}
	}()
	fn()
}

// Subscription is the handle of one registered listener.
type Subscription struct {
	signal *Signal
	id     uint64
	once   sync.Once
}

// Remove unregisters the listener. Later calls are no-ops.
func (sub *Subscription) Remove() {
	sub.once.Do(func() {
		sub.signal.mu.Lock()
		delete(sub.signal.listeners, sub.id)
		sub.signal.mu.Unlock()
	})
}
