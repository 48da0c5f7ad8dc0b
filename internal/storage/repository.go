package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Cvetanski/dev-t/internal/core"
	applog "github.com/Cvetanski/dev-t/internal/log"

	_ "modernc.org/sqlite"
)

// SQLiteRepository owns the relational store backing expenses, categories,
// user balances, and API tokens.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser inserts a user with an already-hashed password.
func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, now,
	)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", applog.FieldUserID, id, "username", username)

	return core.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: now}, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

// CreateToken persists a bearer token for a user.
func (r *SQLiteRepository) CreateToken(ctx context.Context, token string, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_tokens (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

// GetUserIDByToken resolves a bearer token to its owner.
func (r *SQLiteRepository) GetUserIDByToken(ctx context.Context, token string) (int64, error) {
	var userID int64
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM user_tokens WHERE token = ?",
		token,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get user by token: %w", err)
	}
	return userID, nil
}

// SetBalance creates or replaces the available amount for a user.
func (r *SQLiteRepository) SetBalance(ctx context.Context, userID, amount int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users_amount (user_id, amount, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET amount = excluded.amount, updated_at = excluded.updated_at`,
		userID, amount, now, now,
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	slog.InfoContext(ctx, "Balance set", applog.FieldUserID, userID, applog.FieldAmount, amount)
	return nil
}

// GetBalance reads the available amount for a user.
func (r *SQLiteRepository) GetBalance(ctx context.Context, userID int64) (core.Balance, error) {
	b := core.Balance{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		"SELECT amount FROM users_amount WHERE user_id = ?",
		userID,
	).Scan(&b.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Balance{}, core.ErrBalanceNotFound
	}
	if err != nil {
		return core.Balance{}, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}
