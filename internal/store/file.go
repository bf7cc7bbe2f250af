package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const activeSlotFile = "active-slot"

// FileRepository keeps one JSON file per slot in a directory.
type FileRepository struct {
	mu  sync.RWMutex
	dir string
}

func NewFileRepository(dataDir string) (*FileRepository, error) {
	if strings.TrimSpace(dataDir) == "" {
		dataDir = filepath.Join("tmp", "saves")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create save directory: %w", err)
	}
	return &FileRepository{dir: dataDir}, nil
}

func (r *FileRepository) path(slot Slot) string {
	return filepath.Join(r.dir, slot.Key()+".json")
}

func (r *FileRepository) Load(_ context.Context, slot Slot) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, err := os.ReadFile(r.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", slot, err)
	}
	return b, nil
}

// Save writes through a temporary file so a crash never leaves a torn save.
func (r *FileRepository) Save(_ context.Context, slot Slot, data []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeLocked(r.path(slot), data)
}

func (r *FileRepository) writeLocked(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (r *FileRepository) Delete(_ context.Context, slot Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path(slot)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", slot, err)
	}
	return nil
}

func (r *FileRepository) List(_ context.Context) ([]SlotInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SlotInfo, 0, SlotCount)
	for _, s := range Slots() {
		info := SlotInfo{Slot: s, Key: s.Key(), Empty: true}
		st, err := os.Stat(r.path(s))
		switch {
		case err == nil:
			info.Empty = false
			info.UpdatedAt = st.ModTime().UTC()
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("stat %s: %w", s, err)
		}
		out = append(out, info)
	}
	return out, nil
}

func (r *FileRepository) ActiveSlot(_ context.Context) (Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, err := os.ReadFile(filepath.Join(r.dir, activeSlotFile))
	if errors.Is(err, os.ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read active slot: %w", err)
	}
	slot, err := ParseSlot(string(b))
	if err != nil {
		return 1, nil
	}
	return slot, nil
}

func (r *FileRepository) SetActiveSlot(_ context.Context, slot Slot) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writeLocked(filepath.Join(r.dir, activeSlotFile), []byte(strconv.Itoa(int(slot))))
}

func (r *FileRepository) Close() error { return nil }
