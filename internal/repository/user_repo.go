package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"explorers-backend/internal/models"
)

// ErrNotFound is returned for lookups that match no row.
var ErrNotFound = errors.New("record not found")

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Create persists the user and its empty progress document in a single
// transaction: either both rows land or neither does.
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO users (session_id, first_name, last_name, grade, school)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		user.SessionID, user.FirstName, user.LastName, user.Grade, user.School,
	).Scan(&user.CreatedAt)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, "INSERT INTO user_progress (session_id) VALUES ($1)", user.SessionID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// FindByName does a trimmed exact match. When several learners share a name
// the earliest registration wins; matches carries the total count so callers
// can log the ambiguity.
func (r *UserRepo) FindByName(ctx context.Context, firstName, lastName string) (user *models.User, matches int, err error) {
	user = &models.User{}
	query := `SELECT session_id, first_name, last_name, grade, school, created_at, COUNT(*) OVER ()
		FROM users
		WHERE first_name = $1 AND last_name = $2
		ORDER BY created_at ASC
		LIMIT 1`

	err = r.pool.QueryRow(ctx, query, strings.TrimSpace(firstName), strings.TrimSpace(lastName)).Scan(
		&user.SessionID, &user.FirstName, &user.LastName, &user.Grade, &user.School,
		&user.CreatedAt, &matches,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	return user, matches, nil
}

func (r *UserRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT session_id, first_name, last_name, grade, school, created_at
		FROM users WHERE session_id = $1`

	err := r.pool.QueryRow(ctx, query, sessionID).Scan(
		&user.SessionID, &user.FirstName, &user.LastName, &user.Grade, &user.School, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) ListAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, first_name, last_name, grade, school, created_at
		FROM users
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.SessionID, &u.FirstName, &u.LastName, &u.Grade, &u.School, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
