package param

import (
	"math"
	"testing"
)

func TestCurvesAreMonotonic(t *testing.T) {
	curves := map[string]Curve{
		"linear": LinearCurve{},
		"log":    LogCurve{},
		"power":  PowerCurve{Exponent: 3},
	}

	for name, c := range curves {
		t.Run(name, func(t *testing.T) {
			prev := math.Inf(-1)
			for i := 0; i <= 100; i++ {
				n := float64(i) / 100
				plain := c.ToPlain(n, 20, 20000)
				if plain < prev {
					t.Fatalf("ToPlain(%f) = %f, not monotonic (prev %f)", n, plain, prev)
				}
				prev = plain

				back := c.ToNormalized(plain, 20, 20000)
				if math.Abs(back-n) > 1e-9 {
					t.Errorf("round trip at %f gave %f", n, back)
				}
			}
			if got := c.ToPlain(0, 20, 20000); math.Abs(got-20) > 1e-9 {
				t.Errorf("ToPlain(0) = %f, want 20", got)
			}
			if got := c.ToPlain(1, 20, 20000); math.Abs(got-20000) > 1e-6 {
				t.Errorf("ToPlain(1) = %f, want 20000", got)
			}
		})
	}
}

func TestDescriptorDefaultUsesCurve(t *testing.T) {
	d := New(1, "Cutoff").
		Default(632.455532).
		Range(20, 20000).
		Curve(LogCurve{}).
		Build()

	if math.Abs(d.DefaultValue-0.5) > 1e-6 {
		t.Errorf("Expected normalized default 0.5, got %f", d.DefaultValue)
	}
	if math.Abs(d.DefaultPlain()-632.455532) > 1e-3 {
		t.Errorf("Expected plain default 632.46, got %f", d.DefaultPlain())
	}
}

func TestSteppedDescriptorQuantizes(t *testing.T) {
	d := New(2, "Mode").List("Sine", "Saw", "Square").Build()

	if !d.Stepped() || d.Flags&IsList == 0 {
		t.Fatal("Expected list descriptor to be stepped")
	}

	tests := []struct {
		normalized float64
		label      string
	}{
		{0, "Sine"},
		{0.2, "Sine"},
		{0.3, "Saw"},
		{0.5, "Saw"},
		{0.8, "Square"},
		{1, "Square"},
	}
	for _, tt := range tests {
		if got := d.FormatValue(tt.normalized); got != tt.label {
			t.Errorf("FormatValue(%f) = %s, want %s", tt.normalized, got, tt.label)
		}
	}

	n, err := d.ParseValue("Square")
	if err != nil {
		t.Fatalf("ParseValue error: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected Square to normalize to 1, got %f", n)
	}
}

func TestClampNormalized(t *testing.T) {
	if got := ClampNormalized(math.NaN(), 0.25); got != 0.25 {
		t.Errorf("NaN should map to fallback, got %f", got)
	}
	if got := ClampNormalized(1.5, 0); got != 1 {
		t.Errorf("Expected 1, got %f", got)
	}
	if got := ClampNormalized(-0.5, 0); got != 0 {
		t.Errorf("Expected 0, got %f", got)
	}
}

func TestCatalog(t *testing.T) {
	gain := New(10, "Gain").Build()
	pan := New(20, "Pan").ShortName("P").Range(-1, 1).Default(0).Build()

	c, err := NewCatalog(gain, pan)
	if err != nil {
		t.Fatalf("NewCatalog error: %v", err)
	}
	if c.Count() != 2 {
		t.Errorf("Expected 2 descriptors, got %d", c.Count())
	}
	if idx, ok := c.IndexOf(20); !ok || idx != 1 {
		t.Errorf("Expected dense index 1 for id 20, got %d (%v)", idx, ok)
	}
	if c.Get(99) != nil {
		t.Error("Unknown id should return nil")
	}
	if c.ByName("P") != pan {
		t.Error("ByName should match short names")
	}
	if math.Abs(pan.DefaultValue-0.5) > 1e-9 {
		t.Errorf("Expected pan default 0.5, got %f", pan.DefaultValue)
	}

	if _, err := NewCatalog(gain, New(10, "Other").Build()); err == nil {
		t.Error("Expected duplicate id error")
	}
}

func TestFormatters(t *testing.T) {
	if got := FrequencyFormatter(1500); got != "1.50 kHz" {
		t.Errorf("FrequencyFormatter = %s", got)
	}
	if v, err := FrequencyParser("1.5 kHz"); err != nil || v != 1500 {
		t.Errorf("FrequencyParser = %f, %v", v, err)
	}
	if v, err := SecondsParser("250 ms"); err != nil || math.Abs(v-0.25) > 1e-12 {
		t.Errorf("SecondsParser = %f, %v", v, err)
	}
	if got := GainFormatter(1); got != "0.0 dB" {
		t.Errorf("GainFormatter(1) = %s", got)
	}
	if v, err := PercentParser("50%"); err != nil || v != 0.5 {
		t.Errorf("PercentParser = %f, %v", v, err)
	}
}
