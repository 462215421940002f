package orrery

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readExport(t *testing.T, path string) (comments []string, records [][]string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.HasPrefix(line, "#") {
			comments = append(comments, line)
		} else {
			rows = append(rows, line)
		}
	}
	records, err = csv.NewReader(strings.NewReader(strings.Join(rows, "\n"))).ReadAll()
	require.NoError(t, err)
	return comments, records
}

func TestStreamSnapshots(t *testing.T) {
	conf := ExportConfig{Dir: t.TempDir(), Filename: "test", Every: 2}
	a := newTestBody(t, "a", 1, []float64{1, 2, 3}, []float64{4, 5, 6})
	b := newTestBody(t, "b", 1, []float64{-1, -2, -3}, []float64{0, 0, 0.5})
	epoch := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	frames := make(chan Frame)
	done := make(chan error)
	go func() { done <- StreamSnapshots(conf, frames) }()
	for tick := 0; tick < 5; tick++ {
		frames <- Frame{Tick: tick, Epoch: epoch.Add(time.Duration(tick) * time.Hour), Bodies: []BodySnapshot{a.Snapshot(), b.Snapshot()}}
	}
	close(frames)
	require.NoError(t, <-done)

	comments, records := readExport(t, conf.Path(time.Now()))
	require.Len(t, records, 1+3*2, "ticks 0, 2 and 4 of two bodies")
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"0", "2020-01-01T00:00:00Z", a.ID.String(), "a", "1", "2", "3", "4", "5", "6"}, records[1])
	assert.Equal(t, []string{"4", "2020-01-01T04:00:00Z", b.ID.String(), "b", "-1", "-2", "-3", "0", "0", "0.5"}, records[6])
	assert.Contains(t, comments[len(comments)-1], "Frames written: 3")
}

func TestStreamSnapshotsBadDirectory(t *testing.T) {
	conf := ExportConfig{Dir: filepath.Join(t.TempDir(), "missing"), Filename: "test"}
	frames := make(chan Frame, 1)
	frames <- Frame{}
	close(frames)
	assert.Error(t, StreamSnapshots(conf, frames))
}

// fullDiskExport returns an export whose file is /dev/full, where every write fails.
func fullDiskExport(t *testing.T) ExportConfig {
	t.Helper()
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full is not available")
	}
	conf := ExportConfig{Dir: t.TempDir(), Filename: "full", Every: 1}
	require.NoError(t, os.Symlink("/dev/full", conf.Path(time.Now())))
	return conf
}

func TestStreamSnapshotsWriteError(t *testing.T) {
	conf := fullDiskExport(t)
	a := newTestBody(t, "a", 1, []float64{1, 2, 3}, []float64{4, 5, 6})
	frames := make(chan Frame)
	done := make(chan error, 1)
	go func() { done <- StreamSnapshots(conf, frames) }()
	for tick := 0; tick < 1500; tick++ {
		select {
		case frames <- Frame{Tick: tick, Bodies: []BodySnapshot{a.Snapshot()}}:
		case <-time.After(5 * time.Second):
			t.Fatalf("frame %d was never consumed after the write error", tick)
		}
	}
	close(frames)
	assert.Error(t, <-done)
}

func TestExportConfigPath(t *testing.T) {
	now := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "orrery-run.csv"), ExportConfig{Dir: "out", Filename: "run"}.Path(now))
	assert.Equal(t, filepath.Join("out", "orrery-run-2021-03-04T05.06.07.csv"), ExportConfig{Dir: "out", Filename: "run", Timestamp: true}.Path(now))
	assert.True(t, ExportConfig{Dir: "out"}.IsUseless())
}
