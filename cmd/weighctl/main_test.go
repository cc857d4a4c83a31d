package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `No Tiket,Tanggal,Jam Masuk,Jam Keluar,No Polisi,Lokasi,Netto,Janjang
T1,01/03/2024,07:00,07:30,BK 1,Blok A,1000,50
T2,2024-03-02,08:00,08:20,BK 2,Blok B,800,40
T3,2024-03-04,10:00,10:40,BK 1,Blok A,1200,60
T4,2024-03-04,11:00,11:30,BK 3,Blok A,600,bad
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tickets.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	return path
}

func TestAnalyzeToday(t *testing.T) {
	path := writeFixture(t)
	out, err := runCLI(t, "analyze", path, "--window", "today", "--now", "2024-03-04", "--tz", "UTC", "--location", "Blok A")
	require.NoError(t, err)

	var got struct {
		Import struct {
			Rows     int `json:"rows"`
			Degraded int `json:"degraded"`
		} `json:"import"`
		Dashboard struct {
			KPI struct {
				TotalNet float64 `json:"total_net"`
				Trips    int     `json:"trips"`
			} `json:"kpi"`
			Location struct {
				Trips int `json:"trips"`
			} `json:"location"`
		} `json:"dashboard"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, 4, got.Import.Rows)
	assert.Equal(t, 1, got.Import.Degraded)
	assert.Equal(t, 2, got.Dashboard.KPI.Trips)
	assert.Equal(t, 1800.0, got.Dashboard.KPI.TotalNet)
	assert.Equal(t, 3, got.Dashboard.Location.Trips)
}

func TestAnalyzeSeedIsStable(t *testing.T) {
	path := writeFixture(t)
	a, err := runCLI(t, "analyze", path, "--tz", "UTC", "--seed", "42")
	require.NoError(t, err)
	b, err := runCLI(t, "analyze", path, "--tz", "UTC", "--seed", "42")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestAnalyzeMissingFile(t *testing.T) {
	_, err := runCLI(t, "analyze", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestAnalyzeBadNow(t *testing.T) {
	_, err := runCLI(t, "analyze", writeFixture(t), "--tz", "UTC", "--now", "04/03/2024")
	assert.Error(t, err)
}
