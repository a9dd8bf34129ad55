// Package apperrors defines the tagged sentinel errors the core raises at
// its public boundaries, plus a small helper for attaching diagnostic
// context (symbol, timeframe, stage) the way an operator would need it.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTimeframe is returned when a timeframe string fails the
	// ^\d+[mhdwM]$ grammar.
	ErrInvalidTimeframe = errors.New("invalid timeframe")

	// ErrInsufficientHistory is returned when fewer than the requested
	// count of closed bars exist before the reference date.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrInsufficientData is returned when a regime detection call lacks
	// enough bars, or the current-bar indicator values are null.
	ErrInsufficientData = errors.New("insufficient data for detection")

	// ErrTimeout is returned when a global context-request timeout elapses.
	ErrTimeout = errors.New("request timed out")

	// ErrInvalidInput covers missing symbol, bad count, and similar
	// validation failures at a component boundary.
	ErrInvalidInput = errors.New("invalid input")
)

// Context wraps err with structured diagnostic fields. Stage names the
// component/step that failed (e.g. "cache.get", "regime.detect").
func Context(err error, stage string, fields map[string]interface{}) error {
	if err == nil {
		return nil
	}
	msg := stage
	for k, v := range fields {
		msg += fmt.Sprintf(" %s=%v", k, v)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Insufficient builds an ErrInsufficientHistory with available/requested
// counts, matching spec.md §7's requirement to surface both numbers.
func Insufficient(symbol, timeframe string, available, requested int) error {
	return fmt.Errorf("%s %s: have %d closed bars, need %d: %w",
		symbol, timeframe, available, requested, ErrInsufficientHistory)
}
