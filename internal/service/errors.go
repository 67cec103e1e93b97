package service

import (
	"errors"

	"github.com/vbonduro/foodcoach/internal/analysis"
	"github.com/vbonduro/foodcoach/internal/model"
)

// Client-caused errors map to 4xx at the HTTP boundary, the rest to 5xx.
var (
	ErrNoImage              = errors.New("no image provided")
	ErrMissingRequiredField = errors.New("sugar, carbs, cal is required")
	ErrNegativeValue        = errors.New("sugar, carbs, cal must not be negative")
	ErrMissingUserID        = errors.New("userId is required")

	ErrModelUnavailable = model.ErrUnavailable
	ErrInvalidFormat    = analysis.ErrInvalidFormat
	ErrStoreFailure     = errors.New("store failure")
)
