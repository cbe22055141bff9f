package tickmath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundToSpacing(t *testing.T) {
	tests := []struct {
		tick, spacing, want int32
	}{
		{0, 60, 0},
		{29, 60, 0},
		{30, 60, 60},
		{31, 60, 60},
		{-29, 60, 0},
		{-30, 60, 0},
		{-31, 60, -60},
		{-5, 2, -4},
		{887272, 120, 887280},
		{-887220, 120, -887160},
		{119, 120, 120},
		{7, 0, 7},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RoundToSpacing(tt.tick, tt.spacing), "tick=%d spacing=%d", tt.tick, tt.spacing)
	}
}

func TestRoundToSpacingIdempotent(t *testing.T) {
	for _, spacing := range []int32{1, 10, 60, 120, 200} {
		for tick := int32(-1000); tick <= 1000; tick += 7 {
			once := RoundToSpacing(tick, spacing)
			require.Equal(t, once, RoundToSpacing(once, spacing))
			require.Zero(t, once%spacing)
		}
	}
}

func TestUsableRange(t *testing.T) {
	r, err := UsableRange(120)
	require.NoError(t, err)
	require.Equal(t, TickRange{Lower: -887160, Upper: 887160}, r)
	require.NoError(t, r.Validate())

	r, err = UsableRange(60)
	require.NoError(t, err)
	require.Equal(t, TickRange{Lower: -887220, Upper: 887220}, r)

	_, err = UsableRange(0)
	require.ErrorIs(t, err, ErrInvalidSpacing)
}

func TestFullRangeFor(t *testing.T) {
	r, err := FullRangeFor(60)
	require.NoError(t, err)
	require.True(t, r.IsFullRange())

	r, err = FullRangeFor(120)
	require.NoError(t, err)
	require.False(t, r.IsFullRange())
	require.True(t, r.AlignedTo(120))
}

func TestTickRangeValidate(t *testing.T) {
	require.NoError(t, FullRange.Validate())
	require.Error(t, TickRange{Lower: 10, Upper: 10}.Validate())
	require.Error(t, TickRange{Lower: 20, Upper: 10}.Validate())
	require.ErrorIs(t, TickRange{Lower: MinTick - 1, Upper: 0}.Validate(), ErrTickOutOfBounds)
	require.ErrorIs(t, TickRange{Lower: 0, Upper: MaxTick + 1}.Validate(), ErrTickOutOfBounds)
}

func TestSnapRange(t *testing.T) {
	r, err := SnapRange(TickRange{Lower: -130, Upper: 250}, 120)
	require.NoError(t, err)
	require.Equal(t, TickRange{Lower: -120, Upper: 240}, r)

	r, err = SnapRange(TickRange{Lower: 10, Upper: 20}, 120)
	require.NoError(t, err)
	require.Equal(t, TickRange{Lower: 0, Upper: 120}, r)

	r, err = SnapRange(FullRange, 120)
	require.NoError(t, err)
	require.Equal(t, TickRange{Lower: -887160, Upper: 887160}, r)
}
