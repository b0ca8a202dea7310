package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"qaforum/internal/config"
	"qaforum/internal/models"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries holds every statement the engine runs. It is bound either to the
// connection pool or to a single transaction.
type Queries struct {
	db DBTX
}

// Repository provides methods for working with the database.
type Repository struct {
	*Queries
	db *sql.DB
}

// NewRepository opens the SQLite database at cfg.DBPath.
//
// SQLite allows one writer at a time, so the pool is limited to a single
// connection. Inside WithTx only the *Queries passed to the callback may be
// used; calling the Repository there would wait on the held connection.
func NewRepository(cfg *config.Config) (*Repository, error) {
	dsn := cfg.DBPath + "?_foreign_keys=on&_busy_timeout=5000"
	if cfg.DBPath != ":memory:" {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	// :memory: databases vanish with their connection.
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return &Repository{Queries: &Queries{db: db}, db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back on error, panic or context cancellation.
func (r *Repository) WithTx(ctx context.Context, fn func(q *Queries) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Queries{db: tx}); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// CreateUser creates a new user with password hashing.
func (q *Queries) CreateUser(ctx context.Context, user *models.User, plainPassword string) error {
	// Convert email and username to lowercase for consistency
	user.Email = strings.ToLower(user.Email)
	user.Username = strings.ToLower(user.Username)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx, "INSERT INTO users (email, username, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)",
		user.Email, user.Username, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

// CheckPassword compares a plain password against the stored hash.
func CheckPassword(user *models.User, plainPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(plainPassword)) == nil
}

// IsEmailOrUsernameTaken checks if an email or username is already taken.
func (q *Queries) IsEmailOrUsernameTaken(ctx context.Context, email, username string) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ? OR username = ?",
		strings.ToLower(email), strings.ToLower(username)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

const userColumns = "id, email, username, password_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Role, &user.CreatedAt); err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (q *Queries) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", userID))
}

// GetUserByUsername retrieves a user by username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", strings.ToLower(username)))
}

// UserSummaries loads public user data for the given ids.
func (q *Queries) UserSummaries(ctx context.Context, ids []int64) (map[int64]models.UserSummary, error) {
	out := make(map[int64]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders, args := int64List(ids)
	rows, err := q.db.QueryContext(ctx, "SELECT id, username, role FROM users WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// SetUserRole changes a user's role.
func (q *Queries) SetUserRole(ctx context.Context, userID int64, role models.Role) error {
	res, err := q.db.ExecContext(ctx, "UPDATE users SET role = ? WHERE id = ?", role, userID)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	return expectOne(res)
}

// CreateSession creates a new session.
func (q *Queries) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := q.db.ExecContext(ctx, "INSERT INTO sessions (session_id, user_id, expires) VALUES (?, ?, ?)",
		session.SessionID, session.UserID, session.Expires.UTC())
	return err
}

// GetSession retrieves a non-expired session by ID.
func (q *Queries) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	session := &models.Session{}
	err := q.db.QueryRowContext(ctx, "SELECT session_id, user_id, expires FROM sessions WHERE session_id = ? AND expires > ?",
		sessionID, time.Now().UTC()).Scan(&session.SessionID, &session.UserID, &session.Expires)
	if err != nil {
		return nil, notFound(err)
	}
	return session, nil
}

// DeleteSession deletes a session.
func (q *Queries) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID)
	return err
}

// DeleteUserSessions deletes all user sessions except the current one
func (q *Queries) DeleteUserSessions(ctx context.Context, userID int64, exceptSessionID string) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ? AND session_id != ?", userID, exceptSessionID)
	return err
}

// CleanExpiredSessions deletes all expired sessions
func (q *Queries) CleanExpiredSessions(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires < ?", time.Now().UTC())
	return err
}

func int64List(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
