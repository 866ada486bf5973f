package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type TagStorage struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTagStorage(logger zerolog.Logger, pgPool *pgxpool.Pool) *TagStorage {
	return &TagStorage{
		logger: logger,
		pgPool: pgPool,
	}
}

const selectExistingTagsQuery = `
SELECT id
FROM tags
WHERE id = ANY($1)
`

// Exist returns the subset of ids present in storage. The caller
// diffs it against the request to name every missing id.
func (s *TagStorage) Exist(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pgPool.Query(ctx, selectExistingTagsQuery, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tags")
		return nil, err
	}
	defer rows.Close()

	var found []int64
	for rows.Next() {
		var id int64
		err = rows.Scan(&id)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan tag id")
			return nil, err
		}
		found = append(found, id)
	}
	return found, rows.Err()
}
