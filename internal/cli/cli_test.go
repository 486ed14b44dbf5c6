package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var out bytes.Buffer
	config, shouldExit, err := Parse([]string{
		"-solver-bin", "SU2_CFD",
		"-decompose-bin", "SU2_PRT",
		"-partitions", "4",
		"-parallel", "2",
		"-journal", "runs.db",
		"sweep.hcl",
	}, &out)

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "sweep.hcl", config.SweepPath)
	assert.Equal(t, "SU2_CFD", config.Tools.AnalysisBin)
	assert.Equal(t, "SU2_PRT", config.Tools.DecomposeBin)
	assert.Equal(t, 4, config.Tools.Partitions)
	assert.Equal(t, 2, config.Parallel)
	assert.Equal(t, "runs.db", config.JournalPath)
	assert.Equal(t, "text", config.LogFormat)
	assert.Equal(t, ".", config.RunRoot)
}

func TestParseSweepFlagWins(t *testing.T) {
	var out bytes.Buffer
	config, _, err := Parse([]string{"-solver-bin", "solver", "-sweep", "a.hcl", "b.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", config.SweepPath)
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	var out bytes.Buffer
	config, shouldExit, err := Parse(nil, &out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, config)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseInvalidOptions(t *testing.T) {
	cases := map[string][]string{
		"bad log format":     {"-solver-bin", "solver", "-log-format", "xml", "sweep.hcl"},
		"bad log level":      {"-solver-bin", "solver", "-log-level", "verbose", "sweep.hcl"},
		"bad parallel":       {"-solver-bin", "solver", "-parallel", "0", "sweep.hcl"},
		"missing solver bin": {"sweep.hcl"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			_, _, err := Parse(args, &out)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
