// Package history stores past calculations so they can be listed, reloaded
// and deleted. Stores are safe for concurrent use.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/fincalc/pkg/constants"
	"github.com/iwvelando/fincalc/pkg/pricing"
)

// ErrNotFound is returned when no item has the requested ID.
var ErrNotFound = errors.New("history item not found")

// Supported store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Item is one saved calculation.
type Item struct {
	ID string `json:"id"`
	// Timestamp is the save time in Unix milliseconds.
	Timestamp int64          `json:"timestamp"`
	Mode      pricing.Mode   `json:"mode"`
	Inputs    pricing.Inputs `json:"inputs"`
	Result    pricing.Result `json:"result"`
	Currency  string         `json:"currency,omitempty"`
	Language  string         `json:"language,omitempty"`
}

// NewItem stamps a calculation with a fresh ID and the current time.
func NewItem(mode pricing.Mode, inputs pricing.Inputs, result pricing.Result) Item {
	return Item{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Mode:      mode,
		Inputs:    inputs,
		Result:    result,
	}
}

// Time returns Timestamp as a time.Time.
func (i Item) Time() time.Time {
	return time.UnixMilli(i.Timestamp)
}

// Store persists history items.
type Store interface {
	// Save inserts the item, replacing any item with the same ID.
	Save(ctx context.Context, item Item) error
	Get(ctx context.Context, id string) (Item, error)
	// List returns at most limit items, newest first. A limit of zero or
	// less selects constants.DefaultHistoryLimit.
	List(ctx context.Context, limit int) ([]Item, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and configures a store.
type Config struct {
	Driver string `yaml:"driver" json:"driver"`
	DSN    string `yaml:"dsn" json:"dsn"`
}

// Open builds the store named by cfg.Driver. An empty driver selects the
// in-memory store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", cfg.Driver)
	}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultHistoryLimit
	}
	return limit
}

func validateItem(item Item) error {
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("history item requires an id")
	}
	return nil
}
