// Package user persists the accounts allowed to log into the web console.
package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/RobinCoderZhao/tweet-sentinel/pkg/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'viewer',
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store provides persistence for console users.
type Store struct {
	db *storage.DB
}

// NewStore creates a user store and ensures the schema exists.
func NewStore(ctx context.Context, db *storage.DB) (*Store, error) {
	if err := db.Migrate(ctx, schema); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// User represents one console account.
type User struct {
	ID           int
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// Create inserts a new user.
func (s *Store) Create(ctx context.Context, username, passwordHash, role string) (int, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return 0, fmt.Errorf("username is empty")
	}
	if role == "" {
		role = "viewer"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?)`,
		username, passwordHash, role)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, _ := res.LastInsertId()
	return int(id), nil
}

// GetByUsername finds a user. A miss returns (nil, nil).
func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = ?`, username)
	u := &User{}
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Delete removes a user by username. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns all users ordered by creation time.
func (s *Store) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
