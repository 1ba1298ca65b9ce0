package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresStore keeps history in a shared Postgres database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

const postgresColumns = `id, created_at, mode, inputs, result, currency, language`

// OpenPostgres connects to dsn, verifies the connection and applies
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres history requires a dsn")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return newPostgresStore(ctx, pool)
}

func newPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	db := stdlib.OpenDBFromPool(pool)
	err := migrate(ctx, db, goose.DialectPostgres, "migrations/postgres")
	// Closing the adapter does not close the pool.
	db.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, item Item) error {
	if err := validateItem(item); err != nil {
		return err
	}
	inputs, err := json.Marshal(item.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	result, err := json.Marshal(item.Result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO simulations (`+postgresColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			mode = EXCLUDED.mode,
			inputs = EXCLUDED.inputs,
			result = EXCLUDED.result,
			currency = EXCLUDED.currency,
			language = EXCLUDED.language`,
		item.ID, item.Time().UTC(), string(item.Mode), inputs, result, item.Currency, item.Language)
	if err != nil {
		return fmt.Errorf("save history item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Item, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postgresColumns+` FROM simulations WHERE id = $1`, id)
	item, err := scanPostgresItem(row)
	if isNotFoundError(err) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get history item: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Item, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postgresColumns+` FROM simulations ORDER BY created_at DESC, id DESC LIMIT $1`,
		normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanPostgresItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM simulations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM simulations`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresItem(row pgx.Row) (Item, error) {
	var (
		id, mode, currency, language string
		createdAt                    time.Time
		inputs, result               []byte
	)
	if err := row.Scan(&id, &createdAt, &mode, &inputs, &result, &currency, &language); err != nil {
		return Item{}, err
	}
	return decodeItem(id, createdAt.UnixMilli(), mode, inputs, result, currency, language)
}

func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
