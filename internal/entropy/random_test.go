package entropy

import "testing"

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d differs: %g vs %g", i, x, y)
		}
	}
}

func TestCryptoRange(t *testing.T) {
	var c Crypto
	for i := 0; i < 1000; i++ {
		f := c.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %g", f)
		}
		if n := c.Intn(6); n < 0 || n >= 6 {
			t.Fatalf("Intn out of range: %d", n)
		}
	}
}

func TestChanceEdges(t *testing.T) {
	src := Fixed(0.5)
	if Chance(src, 0) {
		t.Error("p=0 must never fire")
	}
	if !Chance(src, 1) {
		t.Error("p=1 must always fire")
	}
	if Chance(src, 0.4) || !Chance(src, 0.6) {
		t.Error("fixed 0.5 should fire only above 0.5")
	}
}

func TestFixedIntnClamps(t *testing.T) {
	if got := Fixed(0.999999).Intn(3); got != 2 {
		t.Errorf("Intn = %d, want 2", got)
	}
	if got := Fixed(0).Intn(3); got != 0 {
		t.Errorf("Intn = %d, want 0", got)
	}
}

func TestNewPicksSource(t *testing.T) {
	if _, ok := New(0).(Crypto); !ok {
		t.Error("seed 0 should use crypto source")
	}
	if _, ok := New(3).(*Seeded); !ok {
		t.Error("non-zero seed should use seeded source")
	}
}
