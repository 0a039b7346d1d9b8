package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const groupsYAML = `start: "2026-06-11"
neutral: true
groups:
  A: [Mexico, South Africa, South Korea, Czechia]
  B: [Canada, Qatar, Switzerland, Bosnia]
`

const paramsCSV = `team,attack,defence,intercept,home_advantage
Mexico,0.2,-0.1,0.1,0.25
South Africa,-0.2,0.1,0.1,0.25
South Korea,0.05,0.0,0.1,0.25
Czechia,0.0,0.05,0.1,0.25
Canada,0.1,-0.05,0.1,0.25
Qatar,-0.3,0.2,0.1,0.25
Switzerland,0.15,-0.15,0.1,0.25
Bosnia,-0.05,0.05,0.1,0.25
`

const settingsYAML = `trials: 400
seed: 5
workers: 2
group_size: 4
bracket_size: 4
third_place_qualifiers: 0
`

func writeInputs(t *testing.T) (groups, params, settings string) {
	t.Helper()
	dir := t.TempDir()
	groups = filepath.Join(dir, "groups.yaml")
	params = filepath.Join(dir, "params.csv")
	settings = filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(groups, []byte(groupsYAML), 0o644))
	require.NoError(t, os.WriteFile(params, []byte(paramsCSV), 0o644))
	require.NoError(t, os.WriteFile(settings, []byte(settingsYAML), 0o644))
	return groups, params, settings
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_WritesReport(t *testing.T) {
	groups, params, settings := writeInputs(t)
	out := filepath.Join(t.TempDir(), "report.csv")

	var stdout bytes.Buffer
	err := run(context.Background(), options{
		Groups: groups, Params: params, Settings: settings,
		Out: out, Top: 3, Previews: true,
	}, &stdout, quietLogger())
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Mexico")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 9)
	assert.Equal(t, "competitor", records[0][0])
	assert.Contains(t, records[0], "prob_champion")
	assert.Contains(t, records[0], "prob_final")
}

func TestRun_FlagsOverrideSettingsFile(t *testing.T) {
	groups, params, settings := writeInputs(t)
	trials := 50
	seed := uint64(77)

	opts := options{Groups: groups, Params: params, Settings: settings, Trials: &trials, Seed: &seed}
	cfg, err := loadSettings(opts)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Trials)
	assert.Equal(t, uint64(77), cfg.Seed)
	assert.Equal(t, 4, cfg.BracketSize)

	var first, second bytes.Buffer
	opts.Out = "-"
	require.NoError(t, run(context.Background(), opts, &first, quietLogger()))
	require.NoError(t, run(context.Background(), opts, &second, quietLogger()))
	assert.Equal(t, first.String(), second.String())
}

func TestRun_InputErrors(t *testing.T) {
	groups, params, settings := writeInputs(t)

	err := run(context.Background(), options{Params: params, Settings: settings}, io.Discard, quietLogger())
	assert.ErrorContains(t, err, "--fixtures or --groups")

	err = run(context.Background(), options{Fixtures: "x.csv", Groups: groups, Params: params}, io.Discard, quietLogger())
	assert.ErrorContains(t, err, "mutually exclusive")

	// Формат по умолчанию (сетка на 32) не совпадает с двумя группами
	err = run(context.Background(), options{Groups: groups, Params: params}, io.Discard, quietLogger())
	assert.Error(t, err)

	missing := filepath.Join(t.TempDir(), "params.csv")
	require.NoError(t, os.WriteFile(missing, []byte(strings.Replace(paramsCSV, "Bosnia,-0.05,0.05,0.1,0.25\n", "", 1)), 0o644))
	err = run(context.Background(), options{Groups: groups, Params: missing, Settings: settings}, io.Discard, quietLogger())
	assert.ErrorContains(t, err, "Bosnia")
}
