package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iwvelando/fincalc/pkg/pricing"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps history in a local SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

type sqliteRow struct {
	ID        string `db:"id"`
	CreatedAt int64  `db:"created_at"`
	Mode      string `db:"mode"`
	Inputs    string `db:"inputs"`
	Result    string `db:"result"`
	Currency  string `db:"currency"`
	Language  string `db:"language"`
}

// OpenSQLite opens (creating if needed) the database at path and applies
// migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite history requires a dsn")
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite history: %w", err)
	}
	if err := migrate(ctx, db.DB, goose.DialectSQLite3, "migrations/sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, item Item) error {
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

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO simulations (id, created_at, mode, inputs, result, currency, language)
		VALUES (:id, :created_at, :mode, :inputs, :result, :currency, :language)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			mode = excluded.mode,
			inputs = excluded.inputs,
			result = excluded.result,
			currency = excluded.currency,
			language = excluded.language`,
		sqliteRow{
			ID:        item.ID,
			CreatedAt: item.Timestamp,
			Mode:      string(item.Mode),
			Inputs:    string(inputs),
			Result:    string(result),
			Currency:  item.Currency,
			Language:  item.Language,
		})
	if err != nil {
		return fmt.Errorf("save history item: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Item, error) {
	var row sqliteRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM simulations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get history item: %w", err)
	}
	return row.item()
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Item, error) {
	var rows []sqliteRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM simulations ORDER BY created_at DESC, id DESC LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		item, err := row.item()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM simulations`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (r sqliteRow) item() (Item, error) {
	return decodeItem(r.ID, r.CreatedAt, r.Mode, []byte(r.Inputs), []byte(r.Result), r.Currency, r.Language)
}

func decodeItem(id string, timestamp int64, mode string, inputs, result []byte, currency, language string) (Item, error) {
	item := Item{
		ID:        id,
		Timestamp: timestamp,
		Mode:      pricing.Mode(mode),
		Currency:  currency,
		Language:  language,
	}
	if err := json.Unmarshal(inputs, &item.Inputs); err != nil {
		return Item{}, fmt.Errorf("decode inputs of %s: %w", id, err)
	}
	if err := json.Unmarshal(result, &item.Result); err != nil {
		return Item{}, fmt.Errorf("decode result of %s: %w", id, err)
	}
	return item, nil
}
