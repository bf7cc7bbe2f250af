// Package store persists campaign states in numbered save slots.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// SlotCount is the number of independent save slots.
const SlotCount = 3

const slotPrefix = "save-slot-"

var (
	// ErrSlotEmpty is returned by Load when nothing is saved in the slot.
	ErrSlotEmpty = errors.New("save slot is empty")
	// ErrInvalidSlot is returned for slot numbers outside 1..SlotCount.
	ErrInvalidSlot = errors.New("invalid save slot")
)

// Slot identifies a save position, 1..SlotCount.
type Slot int

// ParseSlot accepts a bare number or the "save-slot-N" key.
func ParseSlot(raw string) (Slot, error) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), slotPrefix)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, raw)
	}
	s := Slot(n)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSlot, n)
	}
	return s, nil
}

func (s Slot) Valid() bool { return s >= 1 && s <= SlotCount }

// Key is the slot's storage key, e.g. "save-slot-1".
func (s Slot) Key() string { return slotPrefix + strconv.Itoa(int(s)) }

func (s Slot) String() string { return s.Key() }

// Slots lists every slot in order.
func Slots() []Slot {
	out := make([]Slot, 0, SlotCount)
	for i := 1; i <= SlotCount; i++ {
		out = append(out, Slot(i))
	}
	return out
}

// SlotInfo describes one slot for listings.
type SlotInfo struct {
	Slot      Slot      `json:"slot"`
	Key       string    `json:"key"`
	Empty     bool      `json:"empty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository stores opaque state blobs per slot plus the active-slot pointer.
//
//go:generate go tool mockgen -destination=./mocks/repository_mock.go -package=mocks . Repository
type Repository interface {
	Load(ctx context.Context, slot Slot) ([]byte, error)
	Save(ctx context.Context, slot Slot, data []byte) error
	Delete(ctx context.Context, slot Slot) error
	List(ctx context.Context) ([]SlotInfo, error)
	ActiveSlot(ctx context.Context) (Slot, error)
	SetActiveSlot(ctx context.Context, slot Slot) error
	Close() error
}

// FindFreeSlot returns the first empty slot, or slot 1 when all are taken.
func FindFreeSlot(ctx context.Context, repo Repository) (Slot, error) {
	infos, err := repo.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, info := range infos {
		if info.Empty {
			return info.Slot, nil
		}
	}
	return 1, nil
}

// Dialect selects a Repository backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectFile     Dialect = "file"
	DialectMemory   Dialect = "memory"
)

// Options configure Open.
type Options struct {
	Dialect     Dialect
	SQLitePath  string
	PostgresDSN string
	DataDir     string
}

// Open builds the repository selected by opts.Dialect.
func Open(ctx context.Context, opts Options) (Repository, error) {
	d := Dialect(strings.TrimSpace(strings.ToLower(string(opts.Dialect))))
	if d == "" {
		d = DialectSQLite
	}
	var (
		repo Repository
		err  error
	)
	switch d {
	case DialectSQLite:
		repo, err = OpenSQLite(ctx, opts.SQLitePath)
	case DialectPostgres:
		repo, err = OpenPostgres(ctx, opts.PostgresDSN)
	case DialectFile:
		repo, err = NewFileRepository(opts.DataDir)
	case DialectMemory:
		repo = NewMemoryRepository()
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", opts.Dialect)
	}
	if err != nil {
		return nil, err
	}
	slog.Info("save repository opened", "dialect", d)
	return repo, nil
}

func checkSlot(slot Slot) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, int(slot))
	}
	return nil
}
