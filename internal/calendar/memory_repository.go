package calendar

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.RWMutex
	events map[string]Event
}

// NewMemoryRepository returns an in-memory event store.
func NewMemoryRepository() Repository {
	return &memoryRepository{events: make(map[string]Event)}
}

func (r *memoryRepository) Create(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range events {
		r.events[e.ID] = e
	}
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return e, nil
}

func (r *memoryRepository) Update(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[e.ID]; !ok {
		return ErrEventNotFound
	}
	r.events[e.ID] = e
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(r.events, id)
	return nil
}

func (r *memoryRepository) ByUser(_ context.Context, userID string) ([]Event, error) {
	return r.filter(func(e Event) bool { return e.UserID == userID }), nil
}

func (r *memoryRepository) ByRange(_ context.Context, userID string, from, to time.Time) ([]Event, error) {
	return r.filter(func(e Event) bool {
		return e.UserID == userID && !e.EventDate.Before(from) && !e.EventDate.After(to)
	}), nil
}

func (r *memoryRepository) TitleExists(_ context.Context, userID, title string) (bool, error) {
	return len(r.filter(func(e Event) bool { return e.UserID == userID && e.Title == title })) > 0, nil
}

func (r *memoryRepository) RelatedExisting(_ context.Context, userID string, relatedIDs []string) ([]string, error) {
	want := make(map[string]bool, len(relatedIDs))
	for _, id := range relatedIDs {
		want[id] = true
	}
	var out []string
	for _, e := range r.filter(func(e Event) bool { return e.UserID == userID && want[e.RelatedID] }) {
		out = append(out, e.RelatedID)
	}
	return out, nil
}

func (r *memoryRepository) DeleteByTitle(_ context.Context, userID, title string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for id, e := range r.events {
		if e.UserID == userID && e.Title == title {
			delete(r.events, id)
			n++
		}
	}
	return n, nil
}

// filter returns matches ordered by event date, then creation time.
func (r *memoryRepository) filter(keep func(Event) bool) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Event
	for _, e := range r.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].EventDate.Equal(events[j].EventDate) {
			return events[i].EventDate.Before(events[j].EventDate)
		}
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID < events[j].ID
	})
}
