package kite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"position-desk/internal/interfaces"
	"position-desk/internal/logger"
	"position-desk/internal/types"
)

// Columns of the table built from broker positions.
var Columns = []string{"Symbol", "Exchange", "Product", "Type", "Quantity", "LastPrice", "Exposure", "M2M"}

type Params struct {
	APIKey      string
	AccessToken string
	Exchanges   []string
	// BaseURI overrides the Kite API root; empty uses the production endpoint.
	BaseURI string
}

type Source struct {
	kc        *kiteconnect.Client
	exchanges map[string]bool
}

var _ interfaces.PositionSource = (*Source)(nil)

func NewSource(p Params) (*Source, error) {
	if p.APIKey == "" || p.AccessToken == "" {
		return nil, errors.New("missing API key/access token")
	}
	kc := kiteconnect.New(p.APIKey)
	kc.SetAccessToken(p.AccessToken)
	if p.BaseURI != "" {
		kc.SetBaseURI(p.BaseURI)
	}

	s := &Source{kc: kc}
	if len(p.Exchanges) > 0 {
		s.exchanges = make(map[string]bool, len(p.Exchanges))
		for _, ex := range p.Exchanges {
			s.exchanges[strings.ToUpper(ex)] = true
		}
	}
	return s, nil
}

// Positions fetches net positions and lays them out as a position export.
func (s *Source) Positions(ctx context.Context) (types.PositionTable, error) {
	positions, err := s.kc.GetPositions()
	if err != nil {
		return types.PositionTable{}, fmt.Errorf("fetch kite positions: %w", err)
	}

	net := positions.Net
	if s.exchanges != nil {
		kept := net[:0:0]
		for _, p := range net {
			if s.exchanges[p.Exchange] {
				kept = append(kept, p)
			}
		}
		logger.Debug(ctx, "Filtered kite positions by exchange", "total", len(net), "kept", len(kept))
		net = kept
	}
	return Table(net), nil
}

var optionSymbol = regexp.MustCompile(`\d(CE|PE)$`)

// Derivative segments; only these list options.
var derivativeExchanges = map[string]bool{"NFO": true, "BFO": true, "CDS": true, "BCD": true, "MCX": true}

// Category maps a position to its label. Options on a derivative segment end
// in a strike followed by CE or PE; futures and cash equity are FX.
func Category(exchange, tradingsymbol string) string {
	if !derivativeExchanges[strings.ToUpper(exchange)] {
		return types.FX
	}
	if m := optionSymbol.FindStringSubmatch(tradingsymbol); m != nil {
		return m[1]
	}
	return types.FX
}

// Table converts broker positions. Exposure is the absolute notional at last price.
func Table(positions []kiteconnect.Position) types.PositionTable {
	t := types.PositionTable{Columns: Columns, Rows: make([]types.Row, 0, len(positions))}
	for _, p := range positions {
		mult := p.Multiplier
		if mult == 0 {
			mult = 1
		}
		t.Rows = append(t.Rows, types.Row{
			"Symbol":    types.TextCell(p.Tradingsymbol),
			"Exchange":  types.TextCell(p.Exchange),
			"Product":   types.TextCell(p.Product),
			"Type":      types.TextCell(Category(p.Exchange, p.Tradingsymbol)),
			"Quantity":  types.IntCell(int64(p.Quantity)),
			"LastPrice": types.RealCell(p.LastPrice),
			"Exposure":  types.RealCell(math.Abs(float64(p.Quantity)) * p.LastPrice * mult),
			"M2M":       types.RealCell(p.M2M),
		})
	}
	return t
}
