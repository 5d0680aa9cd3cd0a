package workbook

import "errors"

// Common workbook errors.
var (
	// ErrEmptySheet is returned when a sheet has no header row.
	ErrEmptySheet = errors.New("sheet has no header row")
)
