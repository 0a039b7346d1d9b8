// Package dataset loads fixture lists, fitted rate parameters and group
// definitions from files for the offline forecast command.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tournament-forecast/brackets"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/Dosada05/tournament-forecast/ratemodel"
	"gopkg.in/yaml.v2"
)

const DateLayout = "2006-01-02"

var (
	ErrMissingColumn     = errors.New("required column missing")
	ErrInconsistentModel = errors.New("intercept and home advantage must be shared by every competitor")
)

// columns resolves header names (case-insensitive) to indexes. Each wanted
// entry lists accepted aliases.
func columns(header []string, wanted map[string][]string, optional ...string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}

	isOptional := make(map[string]bool, len(optional))
	for _, o := range optional {
		isOptional[o] = true
	}

	out := make(map[string]int, len(wanted))
	for name, aliases := range wanted {
		found := false
		for _, a := range aliases {
			if i, ok := pos[a]; ok {
				out[name] = i
				found = true
				break
			}
		}
		if !found && !isOptional[name] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return out, nil
}

func readAll(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty CSV")
	}
	return records, nil
}

// ReadFixtures parses a fixture CSV with columns date, group, home_team,
// away_team and neutral. The neutral column is optional and defaults to false.
func ReadFixtures(r io.Reader) ([]models.Fixture, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	col, err := columns(records[0], map[string][]string{
		"date":    {"date", "match_date"},
		"group":   {"group", "group_label"},
		"home":    {"home_team", "home"},
		"away":    {"away_team", "away"},
		"neutral": {"neutral"},
	}, "neutral")
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}

	fixtures := make([]models.Fixture, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		date, err := time.Parse(DateLayout, strings.TrimSpace(rec[col["date"]]))
		if err != nil {
			return nil, fmt.Errorf("fixtures line %d: invalid date: %w", line, err)
		}
		f := models.Fixture{
			Date:  date,
			Group: strings.TrimSpace(rec[col["group"]]),
			Home:  strings.TrimSpace(rec[col["home"]]),
			Away:  strings.TrimSpace(rec[col["away"]]),
		}
		if i, ok := col["neutral"]; ok && strings.TrimSpace(rec[i]) != "" {
			f.Neutral, err = strconv.ParseBool(strings.TrimSpace(rec[i]))
			if err != nil {
				return nil, fmt.Errorf("fixtures line %d: invalid neutral flag: %w", line, err)
			}
		}
		if f.Group == "" || f.Home == "" || f.Away == "" {
			return nil, fmt.Errorf("fixtures line %d: group, home and away are required", line)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, nil
}

// ReadParams parses a parameter CSV with columns team, attack, defence,
// intercept and home_advantage into a rate table.
func ReadParams(r io.Reader) (*ratemodel.Table, error) {
	records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	col, err := columns(records[0], map[string][]string{
		"team":           {"team"},
		"attack":         {"attack"},
		"defence":        {"defence", "defense"},
		"intercept":      {"intercept"},
		"home_advantage": {"home_advantage"},
	})
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}

	var intercept, homeAdvantage float64
	params := make([]ratemodel.TeamParams, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		values := make(map[string]float64, 4)
		for _, name := range []string{"attack", "defence", "intercept", "home_advantage"} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col[name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("params line %d: invalid %s: %w", line, name, err)
			}
			values[name] = v
		}

		if n == 0 {
			intercept, homeAdvantage = values["intercept"], values["home_advantage"]
		} else if values["intercept"] != intercept || values["home_advantage"] != homeAdvantage {
			return nil, fmt.Errorf("params line %d: %w", line, ErrInconsistentModel)
		}

		params = append(params, ratemodel.TeamParams{
			Team:    strings.TrimSpace(rec[col["team"]]),
			Attack:  values["attack"],
			Defence: values["defence"],
		})
	}
	if len(params) == 0 {
		return nil, errors.New("read params: no competitors")
	}
	return ratemodel.NewTable(intercept, homeAdvantage, params)
}

// GroupsFile describes groups by membership only; fixtures are generated as a
// round robin inside every group.
type GroupsFile struct {
	Start   string              `yaml:"start"`
	Legs    int                 `yaml:"legs"`
	Neutral bool                `yaml:"neutral"`
	Groups  map[string][]string `yaml:"groups"`
}

// ReadGroups parses a groups YAML document and expands it into fixtures,
// groups in label order.
func ReadGroups(r io.Reader) ([]models.Fixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read groups: %w", err)
	}
	var doc GroupsFile
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("parse groups: %w", err)
	}
	if len(doc.Groups) == 0 {
		return nil, errors.New("parse groups: no groups defined")
	}
	if doc.Legs == 0 {
		doc.Legs = 1
	}
	start := time.Now().UTC().Truncate(24 * time.Hour)
	if doc.Start != "" {
		start, err = time.Parse(DateLayout, doc.Start)
		if err != nil {
			return nil, fmt.Errorf("parse groups: invalid start date: %w", err)
		}
	}

	labels := make([]string, 0, len(doc.Groups))
	for label := range doc.Groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var fixtures []models.Fixture
	for _, label := range labels {
		groupFixtures, err := brackets.GenerateRoundRobin(label, doc.Groups[label], doc.Legs, start, doc.Neutral)
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, groupFixtures...)
	}
	return fixtures, nil
}

// LoadFixtures, LoadParams and LoadGroups open path and delegate to the
// matching reader.
func LoadFixtures(path string) ([]models.Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFixtures(f)
}

func LoadParams(path string) (*ratemodel.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadParams(f)
}

func LoadGroups(path string) ([]models.Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGroups(f)
}
