package table

import "errors"

var (
	// ErrEmptyTable is returned for a table without rows or columns.
	ErrEmptyTable = errors.New("table has no cells")

	// ErrRaggedRow is returned when a row's cell count differs from the
	// number of columns.
	ErrRaggedRow = errors.New("row cell count does not match columns")
)
