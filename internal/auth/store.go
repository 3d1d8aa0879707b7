package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides operator/session persistence. Grounded on
// internal/auth/store.go's user+session tables, with the role tables
// dropped: operator authorization here is the flat owner-email-list +
// dev-password check in middleware.go, not RBAC.
type Store struct {
	pool       *pgxpool.Pool
	sessionTTL time.Duration
}

func NewStore(pool *pgxpool.Pool, sessionTTLHours int) *Store {
	if sessionTTLHours <= 0 {
		sessionTTLHours = 72
	}
	return &Store{pool: pool, sessionTTL: time.Duration(sessionTTLHours) * time.Hour}
}

// InitSchema creates the users/sessions tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  email TEXT UNIQUE NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  picture TEXT NOT NULL DEFAULT '',
  subject TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  expires_at TIMESTAMPTZ NOT NULL,
  id_token TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`)
	return err
}

// UpsertUser creates or updates an operator record by email.
func (s *Store) UpsertUser(ctx context.Context, u *User) (*User, error) {
	if u.Email == "" || u.Subject == "" {
		return nil, errors.New("missing required user fields")
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO users(email, name, picture, subject)
VALUES ($1,$2,$3,$4)
ON CONFLICT (email) DO UPDATE SET
  name=EXCLUDED.name,
  picture=EXCLUDED.picture,
  updated_at=now()
RETURNING id, created_at, updated_at
`, u.Email, u.Name, u.Picture, u.Subject)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByID fetches a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `
SELECT id, email, name, picture, subject, created_at, updated_at
FROM users WHERE id=$1`, id).Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Subject, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateSession issues a new session for a user.
func (s *Store) CreateSession(ctx context.Context, userID int64) (*Session, error) {
	id, err := randomID(32)
	if err != nil {
		return nil, err
	}
	sess := &Session{ID: id, UserID: userID, ExpiresAt: time.Now().Add(s.sessionTTL)}
	_, err = s.pool.Exec(ctx, `INSERT INTO sessions(id, user_id, expires_at, id_token) VALUES($1,$2,$3,'')`, sess.ID, sess.UserID, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession returns the session and associated user if valid.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, *User, error) {
	var sess Session
	err := s.pool.QueryRow(ctx, `SELECT id, user_id, expires_at, created_at, id_token FROM sessions WHERE id=$1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.IDToken)
	if err != nil {
		return nil, nil, err
	}
	if time.Now().After(sess.ExpiresAt) {
		_, _ = s.pool.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
		return nil, nil, pgx.ErrNoRows
	}
	var u User
	err = s.pool.QueryRow(ctx, `SELECT id, email, name, picture, subject, created_at, updated_at FROM users WHERE id=$1`, sess.UserID).
		Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.Subject, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}
	return &sess, &u, nil
}

// SetSessionIDToken stores the OIDC ID token for a session (used for
// RP-initiated logout).
func (s *Store) SetSessionIDToken(ctx context.Context, id string, idToken string) error {
	_, err := s.pool.Exec(ctx, `UPDATE sessions SET id_token=$2 WHERE id=$1`, id, idToken)
	return err
}

// DeleteSession removes a session by id.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	return err
}

func randomID(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) > n*2 {
		s = s[:n*2]
	}
	return s, nil
}

// IsOwner reports whether email (case-insensitively) appears on the
// configured control-panel-owner list. This is an exact email match, not a
// domain allowlist: an empty owner list denies everyone
// rather than allowing everyone, since the algorithm routes must always be
// gated.
func IsOwner(email string, owners []string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, o := range owners {
		if strings.EqualFold(strings.TrimSpace(o), email) {
			return true
		}
	}
	return false
}
