package domain

import "errors"

var (
	// ErrNetwork is returned when a feed file cannot be retrieved.
	ErrNetwork = errors.New("feed unavailable")

	// ErrMalformedFeed is returned when a feed has fewer than two lines or a
	// value row that does not fit its header row.
	ErrMalformedFeed = errors.New("malformed feed")

	// ErrUnknownStation is returned when a file name does not map to a
	// registered station.
	ErrUnknownStation = errors.New("unknown station")

	// ErrMissingColumn marks a metric whose source column is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrNonNumericValue marks a metric whose source value is not a finite number.
	ErrNonNumericValue = errors.New("non-numeric value")
)
