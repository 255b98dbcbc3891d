package model

import "errors"

var (
	// ErrMissingData means the matrix is absent or malformed; insights are unavailable.
	ErrMissingData = errors.New("transition data unavailable")

	// ErrStaleResult signals a result dropped because a newer request superseded it.
	ErrStaleResult = errors.New("stale result discarded")

	// ErrInvalidPeriod means the requested year pair is not served.
	ErrInvalidPeriod = errors.New("invalid period")
)
