package orrery

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// Frame is the state of every object after one tick. Its snapshots carry no trail.
type Frame struct {
	Tick    int
	Epoch   time.Time
	Elapsed float64 // simulated seconds since the start
	Bodies  []BodySnapshot
}

// ExportConfig configures the exporting of the simulation.
type ExportConfig struct {
	Dir       string `mapstructure:"dir"`
	Filename  string `mapstructure:"filename"`
	Every     int    `mapstructure:"every" validate:"gte=0"` // write one frame out of Every, 0 and 1 write them all
	Timestamp bool   `mapstructure:"timestamp"`
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return c.Filename == ""
}

// Path returns the path of the CSV file, created at now if the export is timestamped.
func (c ExportConfig) Path(now time.Time) string {
	name := "orrery-" + c.Filename
	if c.Timestamp {
		name += fmt.Sprintf("-%d-%02d-%02dT%02d.%02d.%02d", now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second())
	}
	return filepath.Join(c.Dir, name+".csv")
}

var csvHeader = []string{"tick", "time", "id", "name", "x", "y", "z", "vx", "vy", "vz"}

// StreamSnapshots writes the frames received on the channel to a CSV file until the
// channel is closed. Positions are in m and velocities in m/s.
func StreamSnapshots(conf ExportConfig, frames <-chan Frame) (err error) {
	// Frames are consumed until the channel is closed, even after an error, so that
	// the simulation is never blocked.
	defer func() {
		for range frames {
		}
	}()
	f, err := os.Create(conf.Path(time.Now()))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	var first, last *Frame
	w := csv.NewWriter(f)
	written := 0
	for frame := range frames {
		frame := frame
		if first == nil {
			first = &frame
			if _, err = fmt.Fprintf(f, "# Creation date (UTC): %s\n# Positions in m, velocities in m/s\n# Simulation time start (UTC): %s (JDE %.5f)\n", time.Now().UTC(), frame.Epoch.UTC(), julian.TimeToJD(frame.Epoch)); err != nil {
				return err
			}
			if err = w.Write(csvHeader); err != nil {
				return err
			}
		}
		last = &frame
		if conf.Every > 1 && frame.Tick%conf.Every != 0 {
			continue
		}
		for _, s := range frame.Bodies {
			if err = w.Write(frameRecord(frame, s)); err != nil {
				return err
			}
		}
		written++
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return err
	}
	if last != nil {
		_, err = fmt.Fprintf(f, "# Simulation time end (UTC): %s\n# Frames written: %d\n", last.Epoch.UTC(), written)
	}
	return err
}

func frameRecord(frame Frame, s BodySnapshot) []string {
	fl := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		strconv.Itoa(frame.Tick),
		frame.Epoch.UTC().Format(time.RFC3339),
		s.ID.String(),
		s.Name,
		fl(s.R[0]), fl(s.R[1]), fl(s.R[2]),
		fl(s.V[0]), fl(s.V[1]), fl(s.V[2]),
	}
}
