package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/climate-anomaly/internal/domain"
)

const extentCSV = ` Year, Month, Day,     Extent,    Missing, Source Data
YYYY,    MM,  DD, 10^6 sq km, 10^6 sq km, Source data product web sites
2001,    01,  01,     10.000,      0.000, [nt_20010101_f13_v1.1_s.bin]
2002,    01,  01,     12.000,      0.000, [nt_20020101_f13_v1.1_s.bin]
2024,    01,  01,     14.000,      0.000, [nt_20240101_f16_v1.1_s.bin]
2024,    01,  02,     -9999,       0.000, [missing]
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// execute runs the command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err != nil {
		t.Log(stderr.String())
	}
	return stdout.String(), err
}

func TestRun_CSV(t *testing.T) {
	path := writeFixture(t, "extent.csv", extentCSV)

	stdout, err := execute(t, "--file", path, "--ref-start", "2001", "--ref-end", "2002",
		"--title", "Antarctic Sea Ice", "--unit", "10^6 km²")
	require.NoError(t, err)

	var out output
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "csv", out.Format)
	assert.Equal(t, []int{2001, 2002, 2024}, out.Years)
	assert.Equal(t, 2024, out.Result.Year)
	assert.Equal(t, 0, out.Result.DayIndex)
	assert.InDelta(t, 3.0, out.Result.Anomaly, 1e-9)
	require.NotNil(t, out.Result.Sigma)
	assert.InDelta(t, 3.0, *out.Result.Sigma, 1e-9)
	assert.Equal(t, "Today's Antarctic Sea Ice Anomaly is 3.00 10^6 km² (3.00σ) above the 2001–2002 mean.", out.Caption)
	assert.Empty(t, out.Charts)
}

func TestRun_JSONWithCharts(t *testing.T) {
	path := writeFixture(t, "sst.json", `[
		{"name": "2001", "data": [20.0, 20.5]},
		{"name": "2002", "data": [21.0, 21.5]},
		{"name": "2024", "data": [22.0, null]},
		{"name": "1982-2010 mean", "data": [20.5, 21.0]}
	]`)
	outDir := t.TempDir()

	stdout, err := execute(t, "-f", path, "--ref-start", "2001", "--ref-end", "2002",
		"--id", "sst", "--out", outDir)
	require.NoError(t, err)

	var out output
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, []int{2001, 2002, 2024}, out.Years)
	assert.InDelta(t, 1.5, out.Result.Anomaly, 1e-9)
	assert.Len(t, out.Charts, 2)
	for _, p := range out.Charts {
		assert.FileExists(t, p)
	}
}

func TestRun_EngineOutcomes(t *testing.T) {
	path := writeFixture(t, "extent.csv", extentCSV)

	_, err := execute(t, "--file", path, "--ref-start", "2001", "--ref-end", "2002", "--strategy", "first_gap",
		"--current-year", "2002")
	require.NoError(t, err)

	_, err = execute(t, "--file", path, "--ref-start", "2001", "--ref-end", "2030")
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRun_InvalidArguments(t *testing.T) {
	csvPath := writeFixture(t, "extent.csv", extentCSV)
	txtPath := writeFixture(t, "extent.txt", extentCSV)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{name: "missing file flag", args: nil, msg: `required flag(s) "file" not set`},
		{name: "unknown strategy", args: []string{"--file", csvPath, "--strategy", "median"}, msg: `unknown strategy "median"`},
		{name: "unknown output", args: []string{"--file", csvPath, "-o", "yaml"}, msg: `unknown output "yaml"`},
		{name: "unknown extension", args: []string{"--file", txtPath}, msg: "cannot infer format"},
		{name: "missing file", args: []string{"--file", filepath.Join(t.TempDir(), "nope.csv")}, msg: "open"},
		{name: "positional argument", args: []string{"extent.csv"}, msg: "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	// An explicit format overrides the extension.
	_, err := execute(t, "--file", txtPath, "--format", "csv", "--ref-start", "2001", "--ref-end", "2002")
	assert.NoError(t, err)
}

func TestRun_TableOutput(t *testing.T) {
	path := writeFixture(t, "extent.csv", extentCSV)

	stdout, err := execute(t, "--file", path, "--ref-start", "2001", "--ref-end", "2002", "-o", "table")
	require.NoError(t, err)

	assert.Contains(t, stdout, "2024-01-01")
	assert.Contains(t, stdout, "+3.000")
	assert.Contains(t, stdout, "+3.00σ")
	assert.Contains(t, stdout, "2001–2002")
}

func TestParseStrategy(t *testing.T) {
	s, err := parseStrategy("first_gap")
	require.NoError(t, err)
	assert.Equal(t, domain.FirstGap, s)

	s, err = parseStrategy("last_valid")
	require.NoError(t, err)
	assert.Equal(t, domain.LastValid, s)
}
