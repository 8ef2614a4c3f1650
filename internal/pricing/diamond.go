package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DiamondQuality identifies a diamond grading tier used by tiered cost tables.
type DiamondQuality string

const (
	QualityLabGrown DiamondQuality = "Lab Grown"
	QualityGHVSSI   DiamondQuality = "GH/VS-SI"
	QualityFGVVSSI  DiamondQuality = "FG/VVS-SI"
	QualityEFVVS    DiamondQuality = "EF/VVS"
)

// DiamondQualities lists the tiers in display order.
var DiamondQualities = []DiamondQuality{QualityLabGrown, QualityGHVSSI, QualityFGVVSSI, QualityEFVVS}

// Valid reports whether q is one of the known tiers.
func (q DiamondQuality) Valid() bool {
	for _, known := range DiamondQualities {
		if q == known {
			return true
		}
	}
	return false
}

// DiamondKind tags the stored shape of a diamond slot.
type DiamondKind string

const (
	KindSimple DiamondKind = "simple"
	KindTiered DiamondKind = "tiered"
)

// Diamond is one physical stone, or a group of stones priced as a unit.
// Implementations are SimpleDiamond and TieredDiamond.
type Diamond interface {
	Kind() DiamondKind
	CaratWeight() float64
	// RateFor returns the cost per carat applicable for the selected quality.
	RateFor(q DiamondQuality) float64
}

// SimpleDiamond carries a single cost per carat, independent of quality.
type SimpleDiamond struct {
	Carat        float64 `json:"carat"`
	CostPerCarat float64 `json:"costPerCarat"`
}

func (SimpleDiamond) Kind() DiamondKind { return KindSimple }

func (d SimpleDiamond) CaratWeight() float64 { return d.Carat }

func (d SimpleDiamond) RateFor(DiamondQuality) float64 { return d.CostPerCarat }

// TieredDiamond carries a cost per carat for every quality tier.
type TieredDiamond struct {
	Carat float64                    `json:"carat"`
	Costs map[DiamondQuality]float64 `json:"costs"`
}

func (TieredDiamond) Kind() DiamondKind { return KindTiered }

func (d TieredDiamond) CaratWeight() float64 { return d.Carat }

// RateFor returns zero when the tier has no configured cost.
func (d TieredDiamond) RateFor(q DiamondQuality) float64 {
	if d.Costs == nil {
		return 0
	}
	return d.Costs[q]
}

// DiamondSet is the collection of stones on an item together with the
// single quality tier selected for the whole piece.
type DiamondSet struct {
	Stones  []Diamond
	Quality DiamondQuality
}

// Cost sums carat * applicable cost per carat over every stone.
func (s DiamondSet) Cost() float64 {
	var total float64
	for _, stone := range s.Stones {
		if stone == nil {
			continue
		}
		total += stone.CaratWeight() * stone.RateFor(s.Quality)
	}
	return total
}

// TotalCarat sums the carat weight of every stone.
func (s DiamondSet) TotalCarat() float64 {
	var total float64
	for _, stone := range s.Stones {
		if stone == nil {
			continue
		}
		total += stone.CaratWeight()
	}
	return total
}

// Count returns the number of slots, zero-carat slots included.
func (s DiamondSet) Count() int {
	n := 0
	for _, stone := range s.Stones {
		if stone != nil {
			n++
		}
	}
	return n
}

// Summary renders a short human readable description of the set.
func (s DiamondSet) Summary() string {
	switch n := s.Count(); n {
	case 0:
		return "No diamonds"
	case 1:
		carat := strconv.FormatFloat(s.TotalCarat(), 'f', -1, 64)
		return strings.TrimSpace(fmt.Sprintf("%sct %s", carat, s.Quality))
	default:
		return fmt.Sprintf("%s (%d stones)", FormatCarat(s.TotalCarat()), n)
	}
}

type diamondWire struct {
	Kind         DiamondKind                `json:"kind"`
	Carat        float64                    `json:"carat"`
	CostPerCarat *float64                   `json:"costPerCarat,omitempty"`
	Costs        map[DiamondQuality]float64 `json:"costs,omitempty"`
}

type diamondSetWire struct {
	Quality DiamondQuality `json:"quality,omitempty"`
	Stones  []diamondWire  `json:"stones"`
}

// MarshalJSON encodes the set with an explicit kind tag per stone.
func (s DiamondSet) MarshalJSON() ([]byte, error) {
	wire := diamondSetWire{Quality: s.Quality, Stones: make([]diamondWire, 0, len(s.Stones))}
	for _, stone := range s.Stones {
		switch d := stone.(type) {
		case SimpleDiamond:
			rate := d.CostPerCarat
			wire.Stones = append(wire.Stones, diamondWire{Kind: KindSimple, Carat: d.Carat, CostPerCarat: &rate})
		case TieredDiamond:
			wire.Stones = append(wire.Stones, diamondWire{Kind: KindTiered, Carat: d.Carat, Costs: d.Costs})
		case nil:
			continue
		default:
			return nil, fmt.Errorf("pricing: unsupported diamond type %T", stone)
		}
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes stones by their kind tag. Stones without a tag are
// resolved by shape: a costs table means tiered, otherwise simple.
func (s *DiamondSet) UnmarshalJSON(data []byte) error {
	var wire diamondSetWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	stones := make([]Diamond, 0, len(wire.Stones))
	for i, w := range wire.Stones {
		kind := w.Kind
		if kind == "" {
			kind = KindSimple
			if w.Costs != nil {
				kind = KindTiered
			}
		}
		switch kind {
		case KindSimple:
			var rate float64
			if w.CostPerCarat != nil {
				rate = *w.CostPerCarat
			}
			stones = append(stones, SimpleDiamond{Carat: w.Carat, CostPerCarat: rate})
		case KindTiered:
			stones = append(stones, TieredDiamond{Carat: w.Carat, Costs: w.Costs})
		default:
			return fmt.Errorf("pricing: stone %d has unknown kind %q", i, w.Kind)
		}
	}
	s.Quality = wire.Quality
	s.Stones = stones
	return nil
}

// Validate rejects negative carat weights and negative rates.
func (s DiamondSet) Validate() error {
	for i, stone := range s.Stones {
		if stone == nil {
			continue
		}
		if stone.CaratWeight() < 0 {
			return fmt.Errorf("stone %d: carat must not be negative", i)
		}
		switch d := stone.(type) {
		case SimpleDiamond:
			if d.CostPerCarat < 0 {
				return fmt.Errorf("stone %d: costPerCarat must not be negative", i)
			}
		case TieredDiamond:
			for q, rate := range d.Costs {
				if rate < 0 {
					return fmt.Errorf("stone %d: cost for %s must not be negative", i, q)
				}
			}
		}
	}
	if s.Quality != "" && !s.Quality.Valid() {
		return fmt.Errorf("unknown diamond quality %q", s.Quality)
	}
	return nil
}
