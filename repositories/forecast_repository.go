package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-forecast/models"
	"github.com/lib/pq"
)

var (
	ErrForecastRunNotFound   = errors.New("forecast run not found")
	ErrForecastRunNotRunning = errors.New("forecast run is not running")
	ErrForecastResultsExist  = errors.New("forecast results already stored for this run")
)

type ForecastRepository interface {
	CreateRun(ctx context.Context, exec SQLExecutor, run *models.ForecastRun) error
	GetRunByID(ctx context.Context, id int) (*models.ForecastRun, error)
	CompleteRun(ctx context.Context, exec SQLExecutor, id int, reportKey *string) error
	FailRun(ctx context.Context, id int, message string) error
	SaveResults(ctx context.Context, exec SQLExecutor, runID int, rows []models.CompetitorForecast) error
	ListResults(ctx context.Context, runID int) ([]models.CompetitorForecast, error)
}

type postgresForecastRepository struct {
	db *sql.DB
}

func NewPostgresForecastRepository(db *sql.DB) ForecastRepository {
	return &postgresForecastRepository{db: db}
}

func (r *postgresForecastRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresForecastRepository) CreateRun(ctx context.Context, exec SQLExecutor, run *models.ForecastRun) error {
	query := `
		INSERT INTO forecast_runs
		    (trials, seed, workers, group_size, bracket_size, third_place_qualifiers, round_labels, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, status, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		run.Trials,
		int64(run.Seed),
		run.Workers,
		run.GroupSize,
		run.BracketSize,
		run.ThirdPlaceQualifiers,
		pq.Array(run.RoundLabels),
		run.CreatedBy,
	).Scan(&run.ID, &run.Status, &run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create forecast run: %w", err)
	}
	return nil
}

func (r *postgresForecastRepository) GetRunByID(ctx context.Context, id int) (*models.ForecastRun, error) {
	query := `
		SELECT id, status, trials, seed, workers, group_size, bracket_size, third_place_qualifiers,
		       round_labels, created_by, error_message, report_key, created_at, completed_at
		FROM forecast_runs
		WHERE id = $1`
	var (
		run  models.ForecastRun
		seed int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Status, &run.Trials, &seed, &run.Workers, &run.GroupSize, &run.BracketSize,
		&run.ThirdPlaceQualifiers, pq.Array(&run.RoundLabels), &run.CreatedBy, &run.ErrorMessage,
		&run.ReportKey, &run.CreatedAt, &run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrForecastRunNotFound
		}
		return nil, fmt.Errorf("failed to get forecast run %d: %w", id, err)
	}
	run.Seed = uint64(seed)
	return &run, nil
}

func (r *postgresForecastRepository) CompleteRun(ctx context.Context, exec SQLExecutor, id int, reportKey *string) error {
	query := `
		UPDATE forecast_runs
		SET status = 'completed', report_key = $1, completed_at = NOW()
		WHERE id = $2 AND status = 'running'`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, reportKey, id)
	if err != nil {
		return fmt.Errorf("failed to complete forecast run %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrForecastRunNotRunning)
}

func (r *postgresForecastRepository) FailRun(ctx context.Context, id int, message string) error {
	query := `
		UPDATE forecast_runs
		SET status = 'failed', error_message = $1, completed_at = NOW()
		WHERE id = $2 AND status = 'running'`
	result, err := r.db.ExecContext(ctx, query, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark forecast run %d as failed: %w", id, err)
	}
	return checkAffectedRows(result, ErrForecastRunNotRunning)
}

// SaveResults пишет все строки прогона в одной транзакции: либо все, либо ничего.
func (r *postgresForecastRepository) SaveResults(ctx context.Context, exec SQLExecutor, runID int, rows []models.CompetitorForecast) error {
	if len(rows) == 0 {
		return nil
	}
	return withTx(ctx, r.db, exec, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO forecast_results
			    (run_id, competitor, group_label, expected_points, expected_goal_difference, expected_goals_for,
			     position_probs, prob_top_two, prob_qualify, round_probs, rank)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
		if err != nil {
			return fmt.Errorf("SaveResults failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, row := range rows {
			_, err := stmt.ExecContext(ctx,
				runID, row.Competitor, row.Group, row.ExpectedPoints, row.ExpectedGoalDifference,
				row.ExpectedGoalsFor, pq.Array(row.PositionProbs), row.ProbTopTwo, row.ProbQualify,
				pq.Array(row.RoundProbs), i+1,
			)
			if err != nil {
				switch code, _ := pqCode(err); code {
				case pqForeignKeyViolation:
					return ErrForecastRunNotFound
				case pqUniqueViolation:
					return ErrForecastResultsExist
				}
				return fmt.Errorf("SaveResults failed for %s: %w", row.Competitor, err)
			}
		}
		return nil
	})
}

// ListResults возвращает строки в порядке сохранения (по шансам на титул).
func (r *postgresForecastRepository) ListResults(ctx context.Context, runID int) ([]models.CompetitorForecast, error) {
	query := `
		SELECT res.run_id, res.competitor, res.group_label, res.expected_points, res.expected_goal_difference,
		       res.expected_goals_for, res.position_probs, res.prob_top_two, res.prob_qualify,
		       res.round_probs, run.round_labels
		FROM forecast_results res
		JOIN forecast_runs run ON run.id = res.run_id
		WHERE res.run_id = $1
		ORDER BY res.rank ASC`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for forecast run %d: %w", runID, err)
	}
	defer rows.Close()

	results := make([]models.CompetitorForecast, 0)
	for rows.Next() {
		var f models.CompetitorForecast
		if err := rows.Scan(
			&f.RunID, &f.Competitor, &f.Group, &f.ExpectedPoints, &f.ExpectedGoalDifference,
			&f.ExpectedGoalsFor, pq.Array(&f.PositionProbs), &f.ProbTopTwo, &f.ProbQualify,
			pq.Array(&f.RoundProbs), pq.Array(&f.RoundLabels),
		); err != nil {
			return nil, fmt.Errorf("failed to scan forecast result: %w", err)
		}
		results = append(results, f)
	}
	return results, rows.Err()
}
