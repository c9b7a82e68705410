package models

import "errors"

var (
	// ErrNoHistory is returned when trend analysis is requested before any
	// derived price history has been established.
	ErrNoHistory = errors.New("no price history available; train first or supply a history")

	// ErrModelNotTrained is returned when a prediction is requested before a
	// model has been trained or loaded.
	ErrModelNotTrained = errors.New("model not trained")
)
