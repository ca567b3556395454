package shadex

import "github.com/hashicorp/go-hclog"

// Option configures the logger an entry point into the core uses.
// Grounded on argmapper's own functional-option pattern (args.go's
// Logger(l hclog.Logger) Arg, threaded into argBuilder.logger): every
// entry point defaults to the package logger (L()) unless a caller
// overrides it.
type Option func(*options)

type options struct {
	log hclog.Logger
}

func newOptions(opts ...Option) *options {
	o := &options{log: L()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger overrides the logger used by LoadTypeWorld, Analyze, or a
// single Emitter, in place of the package default L().
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.log = l }
}
