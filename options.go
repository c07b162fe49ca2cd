// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package promise

// TokenOption configures NewToken, mirroring the functional-options shape
// used throughout this package.
type TokenOption interface {
	applyToken(*tokenOptions)
}

type tokenOptions struct {
	autoInvalidate bool
	logger         Logger
}

type tokenOptionFunc func(*tokenOptions)

func (f tokenOptionFunc) applyToken(o *tokenOptions) { f(o) }

// WithExplicitInvalidate disables auto-invalidate-on-drop: the token only
// invalidates when Invalidate is called explicitly.
func WithExplicitInvalidate() TokenOption {
	return tokenOptionFunc(func(o *tokenOptions) { o.autoInvalidate = false })
}

// WithTokenLogger installs a Logger for this token's diagnostics, instead
// of the package-wide default.
func WithTokenLogger(l Logger) TokenOption {
	return tokenOptionFunc(func(o *tokenOptions) { o.logger = l })
}

func resolveTokenOptions(opts []TokenOption) *tokenOptions {
	o := &tokenOptions{autoInvalidate: true, logger: getGlobalLogger()}
	for _, opt := range opts {
		opt.applyToken(o)
	}
	return o
}

// PoolOption configures ConfigurePriorityPool-adjacent context factories.
type PoolOption interface {
	applyPool(*poolOptions)
}

type poolOptions struct {
	size   int
	logger Logger
}

type poolOptionFunc func(*poolOptions)

func (f poolOptionFunc) applyPool(o *poolOptions) { f(o) }

// WithPoolSize sets the worker count for a priority-pool Context factory.
func WithPoolSize(n int) PoolOption {
	return poolOptionFunc(func(o *poolOptions) { o.size = n })
}

// WithLogger installs a Logger for a priority-pool Context factory's own
// diagnostics.
func WithLogger(l Logger) PoolOption {
	return poolOptionFunc(func(o *poolOptions) { o.logger = l })
}

func resolvePoolOptions(opts []PoolOption) *poolOptions {
	o := &poolOptions{size: schedulerSize, logger: getGlobalLogger()}
	for _, opt := range opts {
		opt.applyPool(o)
	}
	return o
}
