package orrery

import (
	"io"
	"strings"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// NewLogger returns a logfmt logger writing to w, filtered at the provided level
// (debug, info, warn or error; anything else means info). Every line carries the
// simulation name.
func NewLogger(w io.Writer, simulation, lvl string) kitlog.Logger {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	klog = level.NewFilter(klog, levelOption(lvl))
	return kitlog.With(klog, "simulation", simulation)
}

func levelOption(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// orNop returns a no-op logger if l is nil.
func orNop(l kitlog.Logger) kitlog.Logger {
	if l == nil {
		return kitlog.NewNopLogger()
	}
	return l
}
