// Package tickmath converts between ticks, prices and Q64.96 square-root prices.
package tickmath

import (
	"errors"
	"fmt"
)

const (
	// MinTick is the lowest tick the pool manager accepts.
	MinTick int32 = -887272
	// MaxTick is the highest tick the pool manager accepts.
	MaxTick int32 = 887272
)

var (
	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")
	ErrInvalidSpacing       = errors.New("tick spacing must be positive")
)

// TickRange is a [Lower, Upper) interval of ticks.
type TickRange struct {
	Lower int32 `json:"tick_lower"`
	Upper int32 `json:"tick_upper"`
}

// FullRange is the reserved sentinel pair used for full-range positions.
var FullRange = TickRange{Lower: -887220, Upper: 887220}

// Validate requires Lower < Upper with both ends inside [MinTick, MaxTick].
func (r TickRange) Validate() error {
	if r.Lower >= r.Upper {
		return fmt.Errorf("tick lower %d must be below tick upper %d", r.Lower, r.Upper)
	}
	if r.Lower < MinTick || r.Upper > MaxTick {
		return fmt.Errorf("%w: [%d, %d]", ErrTickOutOfBounds, r.Lower, r.Upper)
	}
	return nil
}

// AlignedTo reports whether both ends are multiples of spacing.
func (r TickRange) AlignedTo(spacing int32) bool {
	if spacing <= 0 {
		return false
	}
	return r.Lower%spacing == 0 && r.Upper%spacing == 0
}

// Contains reports whether tick lies in [Lower, Upper).
func (r TickRange) Contains(tick int32) bool {
	return tick >= r.Lower && tick < r.Upper
}

// IsFullRange reports whether r is the sentinel full range.
func (r TickRange) IsFullRange() bool {
	return r == FullRange
}

// RoundToSpacing returns the multiple of spacing nearest to tick.
// Ties round toward positive infinity. Non-positive spacing returns tick unchanged.
func RoundToSpacing(tick, spacing int32) int32 {
	if spacing <= 0 {
		return tick
	}
	t, s := int64(tick), int64(spacing)
	q := t / s
	if t%s != 0 && t < 0 {
		q--
	}
	r := t - q*s
	if 2*r >= s {
		q++
	}
	return int32(q * s)
}

// UsableRange returns the widest spacing-aligned range inside [MinTick, MaxTick].
func UsableRange(spacing int32) (TickRange, error) {
	if spacing <= 0 {
		return TickRange{}, ErrInvalidSpacing
	}
	// Integer division truncates toward zero, which keeps both ends inside the domain.
	return TickRange{
		Lower: (MinTick / spacing) * spacing,
		Upper: (MaxTick / spacing) * spacing,
	}, nil
}

// FullRangeFor returns the sentinel when it is aligned to spacing and UsableRange otherwise.
func FullRangeFor(spacing int32) (TickRange, error) {
	if spacing <= 0 {
		return TickRange{}, ErrInvalidSpacing
	}
	if FullRange.AlignedTo(spacing) {
		return FullRange, nil
	}
	return UsableRange(spacing)
}

// SnapRange rounds both ends to spacing and widens a collapsed range by one spacing.
func SnapRange(r TickRange, spacing int32) (TickRange, error) {
	if spacing <= 0 {
		return TickRange{}, ErrInvalidSpacing
	}
	usable, err := UsableRange(spacing)
	if err != nil {
		return TickRange{}, err
	}
	out := TickRange{Lower: RoundToSpacing(r.Lower, spacing), Upper: RoundToSpacing(r.Upper, spacing)}
	if out.Lower < usable.Lower {
		out.Lower = usable.Lower
	}
	if out.Upper > usable.Upper {
		out.Upper = usable.Upper
	}
	if out.Lower >= out.Upper {
		if out.Lower+spacing <= usable.Upper {
			out.Upper = out.Lower + spacing
		} else {
			out.Lower = out.Upper - spacing
		}
	}
	return out, out.Validate()
}
