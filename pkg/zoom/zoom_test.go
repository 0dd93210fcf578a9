package zoom

import "testing"

func TestNewDefaults(t *testing.T) {
	z := New(Config{})
	if z.Value() != 1 {
		t.Errorf("Expected zoom 1, got %f", z.Value())
	}
	cfg := z.Config()
	if cfg.Min != DefaultMin || cfg.Max != DefaultMax || cfg.Step != DefaultStep {
		t.Errorf("Expected default policy, got %+v", cfg)
	}
}

func TestZoomInOutSteps(t *testing.T) {
	z := New(DefaultConfig())

	for i := 0; i < 3; i++ {
		z.ZoomIn()
	}
	if z.Value() != 1.3 {
		t.Errorf("Expected 1.3 after three steps, got %v", z.Value())
	}
	if z.Percent() != 130 {
		t.Errorf("Expected 130%%, got %d%%", z.Percent())
	}

	for i := 0; i < 5; i++ {
		z.ZoomOut()
	}
	if z.Value() != 0.8 {
		t.Errorf("Expected 0.8, got %v", z.Value())
	}
}

func TestZoomClamps(t *testing.T) {
	z := New(DefaultConfig())

	for i := 0; i < 100; i++ {
		z.ZoomIn()
	}
	if z.Value() != DefaultMax {
		t.Errorf("Expected max %v, got %v", DefaultMax, z.Value())
	}
	if z.CanZoomIn() {
		t.Error("Expected CanZoomIn to be false at max")
	}

	if got := z.ZoomTo(0.01); got != DefaultMin {
		t.Errorf("Expected min %v, got %v", DefaultMin, got)
	}
	if z.CanZoomOut() {
		t.Error("Expected CanZoomOut to be false at min")
	}

	if got := z.Reset(); got != 1 {
		t.Errorf("Expected reset to 1, got %v", got)
	}
}

func TestWheel(t *testing.T) {
	z := New(DefaultConfig())

	// scrolling up 100 units zooms in by one step
	z.Wheel(-100)
	if z.Value() != 1.1 {
		t.Errorf("Expected 1.1, got %v", z.Value())
	}

	z.Wheel(50)
	if z.Value() != 1.05 {
		t.Errorf("Expected 1.05, got %v", z.Value())
	}

	z.Wheel(1e6)
	if z.Value() != DefaultMin {
		t.Errorf("Expected wheel to clamp at %v, got %v", DefaultMin, z.Value())
	}
}

func TestResetClampedIntoRange(t *testing.T) {
	z := New(Config{Min: 2, Max: 4, Step: 0.5})
	if z.Value() != 2 {
		t.Errorf("Expected reset to clamp to 2, got %v", z.Value())
	}
}
