package kite

import (
	"os"

	"position-desk/internal/interfaces"
	"position-desk/internal/store"
)

// NewSourceFromEnv reads KITE_API_KEY and KITE_ACCESS_TOKEN; exchanges come from config.
func NewSourceFromEnv(cfg *store.Config) (interfaces.PositionSource, error) {
	s, err := NewSource(Params{
		APIKey:      os.Getenv("KITE_API_KEY"),
		AccessToken: os.Getenv("KITE_ACCESS_TOKEN"),
		Exchanges:   cfg.Kite.Exchanges,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
