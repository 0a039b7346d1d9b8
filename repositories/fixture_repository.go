package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-forecast/models"
)

var (
	ErrFixtureConflict = errors.New("fixture already exists")
	ErrFixtureInvalid  = errors.New("fixture sides must differ")
)

type FixtureRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, fixtures []models.Fixture) error
	ListAll(ctx context.Context) ([]models.Fixture, error)
	DeleteAll(ctx context.Context, exec SQLExecutor) error
}

type postgresFixtureRepository struct {
	db *sql.DB
}

func NewPostgresFixtureRepository(db *sql.DB) FixtureRepository {
	return &postgresFixtureRepository{db: db}
}

func (r *postgresFixtureRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresFixtureRepository) CreateBatch(ctx context.Context, exec SQLExecutor, fixtures []models.Fixture) error {
	if len(fixtures) == 0 {
		return nil
	}
	return withTx(ctx, r.db, exec, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO fixtures (match_date, group_label, home_team, away_team, neutral)
			VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			return fmt.Errorf("CreateBatch failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, f := range fixtures {
			if _, err := stmt.ExecContext(ctx, f.Date, f.Group, f.Home, f.Away, f.Neutral); err != nil {
				switch code, _ := pqCode(err); code {
				case pqUniqueViolation:
					return fmt.Errorf("%w: %s vs %s in group %s", ErrFixtureConflict, f.Home, f.Away, f.Group)
				case pqCheckViolation:
					return fmt.Errorf("%w: %s", ErrFixtureInvalid, f.Home)
				}
				return fmt.Errorf("CreateBatch failed for %s vs %s: %w", f.Home, f.Away, err)
			}
		}
		return nil
	})
}

// ListAll возвращает фикстуры в порядке групп и дат.
func (r *postgresFixtureRepository) ListAll(ctx context.Context) ([]models.Fixture, error) {
	query := `
		SELECT id, match_date, group_label, home_team, away_team, neutral
		FROM fixtures
		ORDER BY group_label ASC, match_date ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixtures: %w", err)
	}
	defer rows.Close()

	fixtures := make([]models.Fixture, 0)
	for rows.Next() {
		var f models.Fixture
		if err := rows.Scan(&f.ID, &f.Date, &f.Group, &f.Home, &f.Away, &f.Neutral); err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

func (r *postgresFixtureRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM fixtures`)
	return err
}
