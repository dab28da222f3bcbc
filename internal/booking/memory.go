package booking

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]Booking
	order []string
}

// NewMemoryRepository returns a process-local Repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{byID: make(map[string]Booking)}
}

func (r *memoryRepository) Create(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		existing := r.byID[id]
		if existing.ItineraryID == b.ItineraryID && existing.ItemKey == b.ItemKey && existing.Status.Active() {
			return ErrDuplicateActive
		}
	}
	r.byID[b.ID] = *b
	r.order = append(r.order, b.ID)
	return nil
}

func (r *memoryRepository) Update(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[b.ID]; !ok {
		return ErrNotFound
	}
	r.byID[b.ID] = *b
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *memoryRepository) ListByItinerary(_ context.Context, itineraryID string) ([]*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*Booking{}
	for _, id := range r.order {
		if b := r.byID[id]; b.ItineraryID == itineraryID {
			out = append(out, &b)
		}
	}
	return out, nil
}

func (r *memoryRepository) LatestByItem(_ context.Context, itineraryID, itemKey string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if b := r.byID[r.order[i]]; b.ItineraryID == itineraryID && b.ItemKey == itemKey {
			return &b, nil
		}
	}
	return nil, ErrNotFound
}
