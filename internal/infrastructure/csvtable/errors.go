package csvtable

import "errors"

var (
	// ErrEmptyFile is returned when the CSV input is empty
	ErrEmptyFile = errors.New("csvtable: input is empty")

	// ErrInvalidEncoding is returned when the input is not valid UTF-8
	ErrInvalidEncoding = errors.New("csvtable: input is not valid UTF-8")

	// ErrMissingHeader is returned when the input has no header row
	ErrMissingHeader = errors.New("csvtable: missing header row")

	// ErrMissingColumns is returned when required columns are absent
	ErrMissingColumns = errors.New("csvtable: required columns missing")
)
