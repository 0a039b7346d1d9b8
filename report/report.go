// Package report renders forecast results as CSV and console tables.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/Dosada05/tournament-forecast/models"
)

var ErrNoRows = errors.New("no forecast rows to write")

// ColumnName maps a knockout stage label to its report column suffix.
func ColumnName(label string) string {
	switch label {
	case "W":
		return "champion"
	case "F":
		return "final"
	case "SF":
		return "semifinal"
	case "QF":
		return "quarterfinal"
	}
	if n, ok := strings.CutPrefix(label, "R"); ok {
		return "round_of_" + n
	}
	return strings.ToLower(label)
}

// Ordinal formats a 1-based position as 1st, 2nd, 3rd, 4th, ...
func Ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}

// Header returns the CSV header for rows shaped like first.
func Header(first models.CompetitorForecast) []string {
	header := []string{"competitor", "group", "expected_points", "expected_goal_difference", "expected_goals_for"}
	for i := range first.PositionProbs {
		header = append(header, "prob_"+Ordinal(i+1))
	}
	header = append(header, "prob_qualify")
	for _, label := range first.RoundLabels {
		header = append(header, "prob_"+ColumnName(label))
	}
	return append(header, "prob_top_two")
}

// WriteCSV writes one record per competitor in the order given.
func WriteCSV(w io.Writer, rows []models.CompetitorForecast) error {
	if len(rows) == 0 {
		return ErrNoRows
	}

	writer := csv.NewWriter(w)
	header := Header(rows[0])
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Competitor, row.Group,
			formatFloat(row.ExpectedPoints), formatFloat(row.ExpectedGoalDifference), formatFloat(row.ExpectedGoalsFor))
		for _, p := range row.PositionProbs {
			record = append(record, formatFloat(p))
		}
		record = append(record, formatFloat(row.ProbQualify))
		for _, p := range row.RoundProbs {
			record = append(record, formatFloat(p))
		}
		record = append(record, formatFloat(row.ProbTopTwo))

		if len(record) != len(header) {
			return fmt.Errorf("row %s has %d fields, header has %d", row.Competitor, len(record), len(header))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", row.Competitor, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteTable prints the first limit rows as an aligned table of percentages.
// A non-positive limit prints every row.
func WriteTable(w io.Writer, rows []models.CompetitorForecast, limit int) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprint(tw, "Team\tGroup\tPts\tQualify")
	for _, label := range rows[0].RoundLabels {
		fmt.Fprintf(tw, "\t%s", label)
	}
	fmt.Fprintln(tw)

	for _, row := range rows[:limit] {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s", row.Competitor, row.Group, row.ExpectedPoints, pct(row.ProbQualify))
		for _, p := range row.RoundProbs {
			fmt.Fprintf(tw, "\t%s", pct(p))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

// WritePreviews prints home/draw/away odds for each previewed fixture.
func WritePreviews(w io.Writer, previews []models.MatchPreview) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, "Group\tMatch\tHome Win\tDraw\tAway Win")
	for _, p := range previews {
		fmt.Fprintf(tw, "%s\t%s vs %s\t%s\t%s\t%s\n", p.Group, p.Home, p.Away, pct(p.HomeWin), pct(p.Draw), pct(p.AwayWin))
	}
	return tw.Flush()
}

func pct(x float64) string { return fmt.Sprintf("%.1f%%", x*100) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
