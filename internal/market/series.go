package market

import (
	"errors"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRange is returned for an unrecognized chart range.
var ErrInvalidRange = errors.New("market: invalid chart range")

// Range selects the span and resolution of a chart series.
type Range string

const (
	Range1D  Range = "1D"
	Range1W  Range = "1W"
	Range1M  Range = "1M"
	Range3M  Range = "3M"
	Range1Y  Range = "1Y"
	RangeAll Range = "ALL"
)

// DefaultRange is used when a chart request names no range.
const DefaultRange = Range1M

// ParseRange validates a range string. Empty input falls back to
// DefaultRange.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case "":
		return DefaultRange, nil
	case Range1D, Range1W, Range1M, Range3M, Range1Y, RangeAll:
		return Range(s), nil
	}
	return "", ErrInvalidRange
}

// Point is one chart sample: a display label and a price.
type Point struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// rangeShape is the point count, day interval, and step size per range.
// Mirrors the demo generator: hourly points for 1D, daily up to 3M,
// monthly beyond.
type rangeShape struct {
	points   int
	interval int // days between points; 0 means hourly
	step     float64
}

var shapes = map[Range]rangeShape{
	Range1D:  {points: 24, interval: 0, step: 2},
	Range1W:  {points: 7, interval: 1, step: 5},
	Range1M:  {points: 30, interval: 1, step: 5},
	Range3M:  {points: 90, interval: 3, step: 5},
	Range1Y:  {points: 12, interval: 30, step: 5},
	RangeAll: {points: 60, interval: 30, step: 5},
}

// Series generates a synthetic random-walk price series for the range,
// starting at the anchor price on the oldest point and walking forward to
// now. Every call produces a fresh series; nothing is cached or
// reproducible across calls.
func Series(rng Range, anchor decimal.Decimal) []Point {
	shape, ok := shapes[rng]
	if !ok {
		shape = shapes[DefaultRange]
	}

	now := time.Now()
	price, _ := anchor.Float64()
	out := make([]Point, 0, shape.points+1)

	for i := shape.points; i >= 0; i-- {
		var at time.Time
		if shape.interval == 0 {
			at = now.Add(-time.Duration(i) * time.Hour)
		} else {
			at = now.AddDate(0, 0, -i*shape.interval)
		}
		out = append(out, Point{
			Label: pointLabel(rng, at),
			Price: decimal.NewFromFloat(price).Round(2),
		})
		price += (rand.Float64() - 0.5) * shape.step
	}
	return out
}

func pointLabel(rng Range, at time.Time) string {
	switch rng {
	case Range1D:
		return at.Format("3PM")
	case Range1W:
		return at.Format("Mon")
	case Range1Y, RangeAll:
		return at.Format("Jan 06")
	default:
		return at.Format("Jan 2")
	}
}
