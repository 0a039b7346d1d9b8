package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-forecast/ratemodel"
)

var (
	ErrRateParamsEmpty        = errors.New("no fitted rate parameters stored")
	ErrRateParamsInconsistent = errors.New("stored rate parameters disagree on intercept or home advantage")
)

type RateParamRepository interface {
	// LoadTable читает все параметры и собирает неизменяемую таблицу модели.
	LoadTable(ctx context.Context) (*ratemodel.Table, error)
	ReplaceAll(ctx context.Context, exec SQLExecutor, intercept, homeAdvantage float64, params []ratemodel.TeamParams) error
}

type postgresRateParamRepository struct {
	db *sql.DB
}

func NewPostgresRateParamRepository(db *sql.DB) RateParamRepository {
	return &postgresRateParamRepository{db: db}
}

func (r *postgresRateParamRepository) LoadTable(ctx context.Context) (*ratemodel.Table, error) {
	query := `
		SELECT team, attack, defence, intercept, home_advantage
		FROM team_rate_params
		ORDER BY team ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate parameters: %w", err)
	}
	defer rows.Close()

	var (
		params                   []ratemodel.TeamParams
		intercept, homeAdvantage float64
	)
	for rows.Next() {
		var (
			p        ratemodel.TeamParams
			ic, home float64
		)
		if err := rows.Scan(&p.Team, &p.Attack, &p.Defence, &ic, &home); err != nil {
			return nil, fmt.Errorf("failed to scan rate parameters: %w", err)
		}
		if len(params) == 0 {
			intercept, homeAdvantage = ic, home
		} else if ic != intercept || home != homeAdvantage {
			return nil, fmt.Errorf("%w: %s", ErrRateParamsInconsistent, p.Team)
		}
		params = append(params, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(params) == 0 {
		return nil, ErrRateParamsEmpty
	}

	return ratemodel.NewTable(intercept, homeAdvantage, params)
}

// ReplaceAll заменяет набор параметров целиком: модель переобучается сразу на всех командах.
func (r *postgresRateParamRepository) ReplaceAll(ctx context.Context, exec SQLExecutor, intercept, homeAdvantage float64, params []ratemodel.TeamParams) error {
	if _, err := ratemodel.NewTable(intercept, homeAdvantage, params); err != nil {
		return err
	}
	return withTx(ctx, r.db, exec, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM team_rate_params`); err != nil {
			return fmt.Errorf("ReplaceAll failed to clear parameters: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO team_rate_params (team, attack, defence, intercept, home_advantage)
			VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			return fmt.Errorf("ReplaceAll failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range params {
			if _, err := stmt.ExecContext(ctx, p.Team, p.Attack, p.Defence, intercept, homeAdvantage); err != nil {
				return fmt.Errorf("ReplaceAll failed for %s: %w", p.Team, err)
			}
		}
		return nil
	})
}
