package service

import (
	"context"
	"time"

	"github.com/PaulBabatuyi/FileDrop/internal/models"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
	// EventLoaded follows a successful LoadAll; File is zero.
	EventLoaded EventKind = "loaded"
)

// Event describes one applied change to the store.
type Event struct {
	Kind EventKind
	File models.FileRecord
	At   time.Time
}

// Observer receives store events. HandleEvent runs on the goroutine that
// applied the change, after the store lock has been released.
type Observer interface {
	HandleEvent(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) HandleEvent(ctx context.Context, ev Event) {
	f(ctx, ev)
}

type subscription struct {
	id       int
	observer Observer
}

// Subscribe registers o and returns a function that removes it.
func (s *FileStore) Subscribe(o Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.nextObserver++
	id := s.nextObserver
	s.observers = append(s.observers, subscription{id: id, observer: o})

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, sub := range s.observers {
			if sub.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *FileStore) emit(ctx context.Context, kind EventKind, file *models.FileRecord) {
	ev := Event{Kind: kind, At: s.now()}
	if file != nil {
		ev.File = *file
	}

	s.obsMu.RLock()
	subs := make([]subscription, len(s.observers))
	copy(subs, s.observers)
	s.obsMu.RUnlock()

	for _, sub := range subs {
		sub.observer.HandleEvent(ctx, ev)
	}
}
