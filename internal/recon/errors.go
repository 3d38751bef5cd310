package recon

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTable           = errors.New("no rows contain an FX, CE or PE label")
	ErrColumnIdentification = errors.New("column identification failed")
	ErrAggregation          = errors.New("aggregation failed")
)

// EmptyTableError reports that row filtering left nothing to reconcile.
type EmptyTableError struct {
	InputRows int
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("%v (scanned %d rows)", ErrEmptyTable, e.InputRows)
}

func (e *EmptyTableError) Unwrap() error { return ErrEmptyTable }

// ColumnIdentificationError names the column role that could not be derived.
type ColumnIdentificationError struct {
	Role   string
	Reason string
}

func (e *ColumnIdentificationError) Error() string {
	return fmt.Sprintf("%v: %s column: %s", ErrColumnIdentification, e.Role, e.Reason)
}

func (e *ColumnIdentificationError) Unwrap() error { return ErrColumnIdentification }

// AggregationError points at the first cell that could not be summed.
type AggregationError struct {
	Column string
	Row    int
	Value  string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("%v: column %q row %d holds non-numeric value %q", ErrAggregation, e.Column, e.Row, e.Value)
}

func (e *AggregationError) Unwrap() error { return ErrAggregation }
