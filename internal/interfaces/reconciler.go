package interfaces

import (
	"context"

	"position-desk/internal/types"
)

// Reconciler checks whether the FX, CE and PE legs of a position export offset each other.
type Reconciler interface {
	Reconcile(ctx context.Context, table types.PositionTable) (types.ReconResult, error)
}
