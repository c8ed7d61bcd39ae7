package vaccination

import "errors"

// Vaccination errors
var (
	ErrUnknownCountry      = errors.New("vaccination: unknown country")
	ErrInvalidDate         = errors.New("vaccination: invalid observation date")
	ErrInsufficientData    = errors.New("vaccination: not enough observations to chart")
	ErrCountryNotInSource  = errors.New("vaccination: country missing from source data")
	ErrSourceUnavailable   = errors.New("vaccination: source temporarily unavailable")
	ErrSourceRequestFailed = errors.New("vaccination: source request failed")
	ErrSourceInvalid       = errors.New("vaccination: invalid source response")
)
