package store

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository keeps slots in process memory. Used by tests and the
// headless driver.
type MemoryRepository struct {
	mu      sync.RWMutex
	blobs   map[Slot][]byte
	updated map[Slot]time.Time
	active  Slot
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		blobs:   map[Slot][]byte{},
		updated: map[Slot]time.Time{},
		active:  1,
		now:     time.Now,
	}
}

func (r *MemoryRepository) Load(_ context.Context, slot Slot) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[slot]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return append([]byte(nil), b...), nil
}

func (r *MemoryRepository) Save(_ context.Context, slot Slot, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs[slot] = append([]byte(nil), data...)
	r.updated[slot] = r.now().UTC()
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, slot Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blobs, slot)
	delete(r.updated, slot)
	return nil
}

func (r *MemoryRepository) List(_ context.Context) ([]SlotInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SlotInfo, 0, SlotCount)
	for _, s := range Slots() {
		info := SlotInfo{Slot: s, Key: s.Key(), Empty: true}
		if _, ok := r.blobs[s]; ok {
			info.Empty = false
			info.UpdatedAt = r.updated[s]
		}
		out = append(out, info)
	}
	return out, nil
}

func (r *MemoryRepository) ActiveSlot(_ context.Context) (Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active, nil
}

func (r *MemoryRepository) SetActiveSlot(_ context.Context, slot Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = slot
	return nil
}

func (r *MemoryRepository) Close() error { return nil }
