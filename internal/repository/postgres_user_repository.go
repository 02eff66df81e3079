package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"useraccounts/internal/ids"
	"useraccounts/internal/models"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		email            TEXT NOT NULL UNIQUE,
		password_hash    BYTEA NOT NULL,
		avatar_public_id TEXT,
		avatar_url       TEXT,
		role             TEXT NOT NULL DEFAULT 'user',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC);
`

const (
	userColumns             = `id, name, email, avatar_public_id, avatar_url, role, created_at, updated_at`
	userColumnsWithPassword = userColumns + `, password_hash`
)

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, postgresSchema)
	return err
}

func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (
			id, name, email, password_hash, avatar_public_id, avatar_url, role, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
		RETURNING ` + userColumns

	if user.ID == "" {
		user.ID = ids.New()
	}
	publicID, url := avatarColumns(user.Avatar)

	row := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		publicID,
		url,
		user.Role,
	)
	created, err := scanUser(row, false)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return created, nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id), false)
}

func (r *PostgresUserRepository) GetByIDWithPassword(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumnsWithPassword + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id), true)
}

func (r *PostgresUserRepository) FindByEmailWithPassword(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumnsWithPassword + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email), true)
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows, false)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) UpdateName(ctx context.Context, id string, name string) (models.User, error) {
	const query = `
		UPDATE users SET name = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id, name), false)
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) (models.User, error) {
	const query = `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id, passwordHash), false)
}

func (r *PostgresUserRepository) UpdateRoleByEmail(ctx context.Context, email string, role models.UserRole) (models.User, error) {
	const query = `
		UPDATE users SET role = $2, updated_at = NOW() WHERE email = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, email, role), false)
}

func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) (models.User, error) {
	const query = `
		UPDATE users SET avatar_public_id = $2, avatar_url = $3, updated_at = NOW() WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id, avatar.PublicID, avatar.URL), false)
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) (models.User, error) {
	const query = `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, query, id), false)
}

func (r *PostgresUserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row, withPassword bool) (models.User, error) {
	var (
		user      models.User
		publicID  *string
		avatarURL *string
		createdAt time.Time
		updatedAt time.Time
	)
	dest := []any{
		&user.ID,
		&user.Name,
		&user.Email,
		&publicID,
		&avatarURL,
		&user.Role,
		&createdAt,
		&updatedAt,
	}
	if withPassword {
		dest = append(dest, &user.PasswordHash)
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if publicID != nil && *publicID != "" {
		user.Avatar = &models.Avatar{PublicID: *publicID}
		if avatarURL != nil {
			user.Avatar.URL = *avatarURL
		}
	}
	user.CreatedAt = createdAt
	user.UpdatedAt = updatedAt
	return user, nil
}

func avatarColumns(avatar *models.Avatar) (*string, *string) {
	if avatar == nil {
		return nil, nil
	}
	return &avatar.PublicID, &avatar.URL
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
