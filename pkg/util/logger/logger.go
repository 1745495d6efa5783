package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Prm groups Logger's parameters.
type Prm struct {
	level    zapcore.Level
	encoding string
}

const (
	// EncodingConsole is a human-readable encoding, the default one.
	EncodingConsole = "console"
	// EncodingJSON is a machine-readable encoding.
	EncodingJSON = "json"
)

// SetLevelString sets the minimum logging level. Default is "info".
//
// Returns an error if s is not a string representation of a supporting
// logging level.
func (p *Prm) SetLevelString(s string) error {
	return p.level.UnmarshalText([]byte(s))
}

// SetEncoding sets the log records encoding. Default is "console".
func (p *Prm) SetEncoding(s string) error {
	switch s {
	case "", EncodingConsole, EncodingJSON:
		p.encoding = s
		return nil
	default:
		return fmt.Errorf("unsupported log encoding %q", s)
	}
}

// NewLogger constructs zap.Logger writing to stderr. Nil Prm means default
// parameters.
//
// Logger uses ISO8601 timestamps and adds stack traces to fatal records
// only.
func NewLogger(prm *Prm) (*zap.Logger, error) {
	if prm == nil {
		prm = new(Prm)
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(prm.level)
	c.Encoding = EncodingConsole
	if prm.encoding != "" {
		c.Encoding = prm.encoding
	}
	c.Sampling = nil
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := c.Build(
		zap.AddStacktrace(zap.NewAtomicLevelAt(zap.FatalLevel)),
	)
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}

	return l, nil
}
