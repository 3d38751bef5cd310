package interfaces

import (
	"context"
	"io"

	"position-desk/internal/types"
)

// TableLoader turns an uploaded position file into a PositionTable.
// The file extension in name selects the format.
type TableLoader interface {
	Load(ctx context.Context, name string, r io.Reader) (types.PositionTable, error)
}

// PositionSource supplies the current positions from a live account.
type PositionSource interface {
	Positions(ctx context.Context) (types.PositionTable, error)
}
