package tickmath

import (
	"math"
	"math/big"
	"testing"
)

func TestTickToPrice(t *testing.T) {
	if got := TickToPrice(0, 18, 18); got != 1 {
		t.Fatalf("tick 0 price = %v, want 1", got)
	}
	if got := TickToPrice(0, 18, 6); math.Abs(got-1e12)/1e12 > 1e-12 {
		t.Fatalf("decimal scaling wrong: %v", got)
	}
	if got := TickToPrice(10000, 18, 18); math.Abs(got-math.Pow(1.0001, 10000)) > 1e-9 {
		t.Fatalf("tick 10000 price = %v", got)
	}
}

func TestPriceToTickRoundTrip(t *testing.T) {
	for _, tick := range []int32{-887220, -50000, -120, -1, 0, 1, 60, 120, 50000, 887220} {
		price := TickToPrice(tick, 18, 6)
		got, err := PriceToTick(price, 18, 6)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		if got != tick {
			t.Fatalf("round trip tick %d -> %v -> %d", tick, price, got)
		}
	}
}

func TestPriceToTickFloors(t *testing.T) {
	// Halfway between tick 0 and tick 1.
	got, err := PriceToTick(1.00005, 18, 18)
	if err != nil {
		t.Fatalf("price to tick: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected floor to 0, got %d", got)
	}
	got, err = PriceToTick(0.99995, 18, 18)
	if err != nil {
		t.Fatalf("price to tick: %v", err)
	}
	if got != -1 {
		t.Fatalf("expected floor to -1, got %d", got)
	}
}

func TestPriceToTickRejectsNonPositive(t *testing.T) {
	for _, price := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := PriceToTick(price, 18, 18); err == nil {
			t.Fatalf("expected error for price %v", price)
		}
	}
}

func TestSqrtPriceToPrice(t *testing.T) {
	if got := SqrtPriceToPrice(Q96, 18, 18); got != 1 {
		t.Fatalf("sqrt price 2^96 = %v, want 1", got)
	}
	double := new(big.Int).Lsh(Q96, 1)
	if got := SqrtPriceToPrice(double, 18, 18); got != 4 {
		t.Fatalf("sqrt price 2*2^96 = %v, want 4", got)
	}
	if got := SqrtPriceToPrice(Q96, 6, 18); math.Abs(got-1e-12)/1e-12 > 1e-12 {
		t.Fatalf("decimal scaling wrong: %v", got)
	}
	if got := SqrtPriceToPrice(nil, 18, 18); got != 0 {
		t.Fatalf("nil sqrt price = %v", got)
	}
}
