package watch

import (
	"math/rand"
	"testing"
	"time"
)

func TestJitteredSleepStaysWithinBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	interval := 5 * time.Minute
	for i := 0; i < 200; i++ {
		got := jitteredSleep(interval, rnd)
		lower := time.Duration(float64(interval) * (1 - jitterFraction))
		upper := time.Duration(float64(interval) * (1 + jitterFraction))
		if got < lower || got > upper {
			t.Fatalf("jitteredSleep(%v) = %v, want within [%v, %v]", interval, got, lower, upper)
		}
	}
}

func TestJitteredSleepNeverBelowMinimum(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	got := jitteredSleep(5*time.Second, rnd)
	if got < minSleep {
		t.Errorf("jitteredSleep = %v, want at least %v", got, minSleep)
	}
}

func TestBackoffForProgression(t *testing.T) {
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, 60 * time.Second},
		{2, 120 * time.Second},
		{3, 240 * time.Second},
		{7, 3600 * time.Second},
		{100, 3600 * time.Second},
	}
	for _, c := range cases {
		if got := backoffFor(c.failures); got != c.want {
			t.Errorf("backoffFor(%d) = %v, want %v", c.failures, got, c.want)
		}
	}
}
