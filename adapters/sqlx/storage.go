package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database drivers selected via Config.Driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"loyaltykit/core"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL storage configuration
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.Storage interface on a relational database.
// Schema:
//   - user_xp(user_id, xp, created_at, updated_at)
//   - user_orders(user_id, orders, created_at, updated_at)
//   - user_levels(user_id, level, created_at, updated_at)
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a database connection using the provided configuration.
func New(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("sql storage requires a DSN")
	}
	db, err := sqlx.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB creates a Store using an existing sqlx.DB (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// AddXP adds delta to the user's XP total inside a transaction.
func (s *Store) AddXP(ctx context.Context, user core.UserID, delta int64) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var current int64
	err = tx.GetContext(ctx, &current,
		tx.Rebind(`SELECT xp FROM user_xp WHERE user_id = ?`), user)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if delta < 0 {
			return 0, fmt.Errorf("xp for %s would go negative", user)
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO user_xp (user_id, xp, created_at, updated_at) VALUES (?, ?, ?, ?)`),
			user, delta, now, now); err != nil {
			return 0, fmt.Errorf("insert xp: %w", err)
		}
		current = delta
	case err != nil:
		return 0, fmt.Errorf("select xp: %w", err)
	default:
		next, err := core.AddSafe(current, delta)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE user_xp SET xp = ?, updated_at = ? WHERE user_id = ?`),
			next, now, user); err != nil {
			return 0, fmt.Errorf("update xp: %w", err)
		}
		current = next
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return current, nil
}

// RecordOrder increments the user's completed order counter.
func (s *Store) RecordOrder(ctx context.Context, user core.UserID) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var orders int64
	err = tx.GetContext(ctx, &orders,
		tx.Rebind(`SELECT orders FROM user_orders WHERE user_id = ?`), user)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO user_orders (user_id, orders, created_at, updated_at) VALUES (?, ?, ?, ?)`),
			user, int64(1), now, now); err != nil {
			return 0, fmt.Errorf("insert orders: %w", err)
		}
		orders = 1
	case err != nil:
		return 0, fmt.Errorf("select orders: %w", err)
	default:
		orders++
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE user_orders SET orders = ?, updated_at = ? WHERE user_id = ?`),
			orders, now, user); err != nil {
			return 0, fmt.Errorf("update orders: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	return orders, nil
}

// GetState reads the full loyalty snapshot; missing rows read as zero.
func (s *Store) GetState(ctx context.Context, user core.UserID) (core.UserState, error) {
	state := core.UserState{UserID: user, Updated: time.Now().UTC()}

	err := s.db.GetContext(ctx, &state.XP,
		s.db.Rebind(`SELECT xp FROM user_xp WHERE user_id = ?`), user)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.UserState{}, fmt.Errorf("select xp: %w", err)
	}

	err = s.db.GetContext(ctx, &state.Orders,
		s.db.Rebind(`SELECT orders FROM user_orders WHERE user_id = ?`), user)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.UserState{}, fmt.Errorf("select orders: %w", err)
	}

	err = s.db.GetContext(ctx, &state.Level,
		s.db.Rebind(`SELECT level FROM user_levels WHERE user_id = ?`), user)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return core.UserState{}, fmt.Errorf("select level: %w", err)
	}

	return state, nil
}

// SetLevel upserts the stored loyalty level.
func (s *Store) SetLevel(ctx context.Context, user core.UserID, level int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	var exists bool
	err = tx.GetContext(ctx, &exists,
		tx.Rebind(`SELECT EXISTS (SELECT 1 FROM user_levels WHERE user_id = ?)`), user)
	if err != nil {
		return fmt.Errorf("select level: %w", err)
	}
	if exists {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`UPDATE user_levels SET level = ?, updated_at = ? WHERE user_id = ?`),
			level, now, user); err != nil {
			return fmt.Errorf("update level: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO user_levels (user_id, level, created_at, updated_at) VALUES (?, ?, ?, ?)`),
			user, level, now, now); err != nil {
			return fmt.Errorf("insert level: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
