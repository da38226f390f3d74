package index

import (
	"time"

	"github.com/maloquacious/pkgindex/internal/logger"
	"github.com/spf13/afero"
)

// Option configures an Index at creation or open time.
type Option func(*options)

type options struct {
	log         logger.Logger
	now         func() time.Time
	fs          afero.Fs
	busyTimeout time.Duration
}

func newOptions(opts []Option) options {
	o := options{
		log: logger.Nop(),
		now: time.Now,
		fs:  afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for operation traces.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock sets the source of the last write time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFs sets the filesystem manifest files are read from.
func WithFs(fs afero.Fs) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithBusyTimeout bounds how long the connection waits on another
// connection's lock.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		o.busyTimeout = d
	}
}
