// Package logging builds the go-kit loggers used by dynwalk.
package logging

import (
	"fmt"
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// New creates a logger writing to w. Writes are serialized so the logger may
// be shared between goroutines.
func New(w io.Writer, o Options) (log.Logger, error) {
	if o.Level == "" {
		o.Level = LevelDefault
	}
	if o.Format == "" {
		o.Format = FormatDefault
	}

	sw := log.NewSyncWriter(w)
	var l log.Logger
	switch o.Format {
	case FormatLogfmt:
		l = log.NewLogfmtLogger(sw)
	case FormatJSON:
		l = log.NewJSONLogger(sw)
	default:
		return nil, fmt.Errorf("unrecognized log format %q", o.Format)
	}

	l = log.With(l, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(l, o.Level.Filter()), nil
}
