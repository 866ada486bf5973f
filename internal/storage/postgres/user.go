package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mkarpenko/task-tracker/internal/models"
	"github.com/mkarpenko/task-tracker/internal/storage"
)

type UserStorage struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewUserStorage(logger zerolog.Logger, pgPool *pgxpool.Pool) *UserStorage {
	return &UserStorage{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectUserExistsQuery = `
SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
`

func (s *UserStorage) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pgPool.QueryRow(ctx, selectUserExistsQuery, id).Scan(&exists)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("user_id", id).
			Msg("failed to check user existence")
		return false, err
	}
	return exists, nil
}

const selectUsersQuery = `
SELECT id,
       name,
       email
FROM users
ORDER BY id
`

func (s *UserStorage) GetAll(ctx context.Context) ([]models.User, error) {
	rows, err := s.pgPool.Query(ctx, selectUsersQuery)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select users")
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err = rows.Scan(&user.ID, &user.Name, &user.Email)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan user")
			return nil, err
		}
		users = append(users, user)
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return users, nil
}

const insertUserQuery = `
INSERT INTO users (name, email)
VALUES ($1, $2)
RETURNING id
`

func (s *UserStorage) Insert(ctx context.Context, user *models.User) error {
	err := s.pgPool.QueryRow(
		ctx,
		insertUserQuery,
		user.Name,
		user.Email,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			s.logger.Warn().
				Str("email", user.Email).
				Msg("user with this email already exists")
			return storage.ErrConflict
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return err
	}
	s.logger.Debug().
		Int64("user_id", user.ID).
		Msg("inserted user")
	return nil
}
