package models

import "time"

// ForecastStatus mirrors the forecast_status enum in the database.
type ForecastStatus string

const (
	ForecastStatusRunning   ForecastStatus = "running"
	ForecastStatusCompleted ForecastStatus = "completed"
	ForecastStatusFailed    ForecastStatus = "failed"
)

// ForecastRun describes one Monte Carlo run and its configuration.
type ForecastRun struct {
	ID                   int            `json:"id" db:"id"`
	Status               ForecastStatus `json:"status" db:"status"`
	Trials               int            `json:"trials" db:"trials"`
	Seed                 uint64         `json:"seed" db:"seed"`
	Workers              int            `json:"workers" db:"workers"`
	GroupSize            int            `json:"group_size" db:"group_size"`
	BracketSize          int            `json:"bracket_size" db:"bracket_size"`
	ThirdPlaceQualifiers int            `json:"third_place_qualifiers" db:"third_place_qualifiers"`
	RoundLabels          []string       `json:"round_labels" db:"round_labels"`
	CreatedBy            *int           `json:"created_by,omitempty" db:"created_by"`
	ErrorMessage         *string        `json:"error_message,omitempty" db:"error_message"`
	ReportKey            *string        `json:"-" db:"report_key"`
	ReportURL            *string        `json:"report_url,omitempty" db:"-"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}
