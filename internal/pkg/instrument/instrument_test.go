package instrument

import (
	"context"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("NilConfigYieldsNoop", func(t *testing.T) {
		ins, err := New(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ins.Tracer("test") == nil || ins.Meter("test") == nil {
			t.Fatal("expected usable tracer and meter")
		}
		if err := ins.Shutdown(context.Background()); err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	})

	t.Run("DisabledConfigYieldsNoop", func(t *testing.T) {
		ins, err := New(context.Background(), &Config{Enabled: false})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := ins.Shutdown(context.Background()); err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	})
}

func TestClampRatio(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: -0.5, want: 0},
		{in: 0, want: 0},
		{in: 0.25, want: 0.25},
		{in: 1, want: 1},
		{in: 3, want: 1},
	}

	for _, c := range cases {
		if got := clampRatio(c.in); got != c.want {
			t.Fatalf("clampRatio(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
