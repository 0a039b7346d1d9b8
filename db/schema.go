package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema создаёт таблицы прогнозов. Все операторы идемпотентны.
var Schema = []string{
	`DO $$ BEGIN
		CREATE TYPE forecast_status AS ENUM ('running', 'completed', 'failed');
	EXCEPTION WHEN duplicate_object THEN NULL;
	END $$`,

	`CREATE TABLE IF NOT EXISTS fixtures (
		id          SERIAL PRIMARY KEY,
		match_date  DATE NOT NULL,
		group_label TEXT NOT NULL,
		home_team   TEXT NOT NULL,
		away_team   TEXT NOT NULL,
		neutral     BOOLEAN NOT NULL DEFAULT FALSE,
		CONSTRAINT fixtures_pairing_key UNIQUE (group_label, home_team, away_team, match_date),
		CONSTRAINT chk_fixture_distinct_sides CHECK (home_team <> away_team)
	)`,

	`CREATE TABLE IF NOT EXISTS team_rate_params (
		team           TEXT PRIMARY KEY,
		attack         DOUBLE PRECISION NOT NULL,
		defence        DOUBLE PRECISION NOT NULL,
		intercept      DOUBLE PRECISION NOT NULL,
		home_advantage DOUBLE PRECISION NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS forecast_runs (
		id                     SERIAL PRIMARY KEY,
		status                 forecast_status NOT NULL DEFAULT 'running',
		trials                 INTEGER NOT NULL CHECK (trials > 0),
		seed                   BIGINT NOT NULL, -- uint64, хранится побитово
		workers                INTEGER NOT NULL,
		group_size             INTEGER NOT NULL,
		bracket_size           INTEGER NOT NULL,
		third_place_qualifiers INTEGER NOT NULL,
		round_labels           TEXT[] NOT NULL DEFAULT '{}',
		created_by             INTEGER,
		error_message          TEXT,
		report_key             TEXT,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at           TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS forecast_results (
		run_id                   INTEGER NOT NULL REFERENCES forecast_runs(id) ON DELETE CASCADE,
		competitor               TEXT NOT NULL,
		group_label              TEXT NOT NULL,
		expected_points          DOUBLE PRECISION NOT NULL,
		expected_goal_difference DOUBLE PRECISION NOT NULL,
		expected_goals_for       DOUBLE PRECISION NOT NULL,
		position_probs           DOUBLE PRECISION[] NOT NULL,
		prob_top_two             DOUBLE PRECISION NOT NULL,
		prob_qualify             DOUBLE PRECISION NOT NULL,
		round_probs              DOUBLE PRECISION[] NOT NULL,
		rank                     INTEGER NOT NULL,
		CONSTRAINT forecast_results_pkey PRIMARY KEY (run_id, competitor)
	)`,
}

// EnsureSchema применяет Schema по порядку.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
