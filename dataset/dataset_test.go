package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-forecast/ratemodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturesCSV = `date,group,home_team,away_team,neutral
2026-06-11,A,Mexico,South Africa,False
2026-06-12,A,South Korea,Czechia,True
2026-06-12,B,Canada,Qatar,
`

const paramsCSV = `team,attack,defence,intercept,home_advantage
Mexico,0.21,-0.1,0.05,0.3
South Africa,-0.12,0.04,0.05,0.3
`

func TestReadFixtures(t *testing.T) {
	fixtures, err := ReadFixtures(strings.NewReader(fixturesCSV))
	require.NoError(t, err)
	require.Len(t, fixtures, 3)

	assert.Equal(t, "Mexico", fixtures[0].Home)
	assert.Equal(t, "South Africa", fixtures[0].Away)
	assert.Equal(t, "A", fixtures[0].Group)
	assert.False(t, fixtures[0].Neutral)
	assert.True(t, fixtures[1].Neutral)
	assert.False(t, fixtures[2].Neutral)
	assert.Equal(t, time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC), fixtures[0].Date)
}

func TestReadFixtures_Errors(t *testing.T) {
	_, err := ReadFixtures(strings.NewReader("date,group,home_team\n2026-06-11,A,Mexico\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadFixtures(strings.NewReader("date,group,home_team,away_team\n11/06/2026,A,Mexico,Qatar\n"))
	assert.Error(t, err)

	_, err = ReadFixtures(strings.NewReader("date,group,home_team,away_team,neutral\n2026-06-11,A,Mexico,Qatar,maybe\n"))
	assert.Error(t, err)

	_, err = ReadFixtures(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadParams(t *testing.T) {
	table, err := ReadParams(strings.NewReader(paramsCSV))
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.InDelta(t, 0.05, table.Intercept(), 1e-15)
	assert.InDelta(t, 0.3, table.HomeAdvantage(), 1e-15)
	p, err := table.Lookup("Mexico")
	require.NoError(t, err)
	assert.InDelta(t, 0.21, p.Attack, 1e-15)
}

func TestReadParams_Errors(t *testing.T) {
	_, err := ReadParams(strings.NewReader("team,attack,defence,intercept,home_advantage\nA,0,0,0.1,0.3\nB,0,0,0.2,0.3\n"))
	assert.ErrorIs(t, err, ErrInconsistentModel)

	_, err = ReadParams(strings.NewReader("team,attack,defence,intercept,home_advantage\nA,x,0,0.1,0.3\n"))
	assert.Error(t, err)

	_, err = ReadParams(strings.NewReader("team,attack,defence,intercept,home_advantage\nA,0,0,0.1,0.3\nA,1,0,0.1,0.3\n"))
	assert.ErrorIs(t, err, ratemodel.ErrDuplicateCompetitor)

	_, err = ReadParams(strings.NewReader("team,attack,defence,intercept,home_advantage\n"))
	assert.Error(t, err)
}

func TestReadGroups(t *testing.T) {
	doc := `start: "2026-06-11"
neutral: true
groups:
  B: [Canada, Qatar, Switzerland, Bosnia]
  A: [Mexico, South Africa, South Korea, Czechia]
`
	fixtures, err := ReadGroups(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, fixtures, 12)
	assert.Equal(t, "A", fixtures[0].Group)
	assert.Equal(t, "B", fixtures[6].Group)
	for _, f := range fixtures {
		assert.True(t, f.Neutral)
	}
}

func TestReadGroups_Errors(t *testing.T) {
	_, err := ReadGroups(strings.NewReader("groups: {}\n"))
	assert.Error(t, err)

	_, err = ReadGroups(strings.NewReader("groups:\n  A: [Solo]\n"))
	assert.Error(t, err)

	_, err = ReadGroups(strings.NewReader("group:\n  A: [X, Y]\n"))
	assert.Error(t, err)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	fixturesPath := filepath.Join(dir, "fixtures.csv")
	paramsPath := filepath.Join(dir, "params.csv")
	require.NoError(t, os.WriteFile(fixturesPath, []byte(fixturesCSV), 0o600))
	require.NoError(t, os.WriteFile(paramsPath, []byte(paramsCSV), 0o600))

	fixtures, err := LoadFixtures(fixturesPath)
	require.NoError(t, err)
	assert.Len(t, fixtures, 3)

	table, err := LoadParams(paramsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mexico", "South Africa"}, table.Teams())

	_, err = LoadFixtures(filepath.Join(dir, "missing.csv"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
