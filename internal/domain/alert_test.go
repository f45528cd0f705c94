package domain

import "testing"

func TestSeverity_Rank(t *testing.T) {
	order := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("Rank(%s) should be greater than Rank(%s)", order[i], order[i-1])
		}
	}

	if Severity("bogus").Rank() != 0 {
		t.Error("unknown severity should rank 0")
	}
}

func TestSeverity_Escalate(t *testing.T) {
	tests := []struct {
		in   Severity
		want Severity
	}{
		{SeverityLow, SeverityMedium},
		{SeverityMedium, SeverityHigh},
		{SeverityHigh, SeverityCritical},
		{SeverityCritical, SeverityCritical},
	}

	for _, tt := range tests {
		if got := tt.in.Escalate(); got != tt.want {
			t.Errorf("Escalate(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMaxSeverity(t *testing.T) {
	if got := MaxSeverity(SeverityLow, SeverityHigh); got != SeverityHigh {
		t.Errorf("MaxSeverity = %s, want high", got)
	}
	if got := MaxSeverity(SeverityCritical, SeverityMedium); got != SeverityCritical {
		t.Errorf("MaxSeverity = %s, want critical", got)
	}
	if got := MaxSeverity(SeverityHigh, SeverityHigh); got != SeverityHigh {
		t.Errorf("MaxSeverity = %s, want high", got)
	}
}

func TestAlert_IsCorrelated(t *testing.T) {
	single := &Alert{Type: AlertTypeSingle}
	correlated := &Alert{Type: AlertTypeCorrelated}

	if single.IsCorrelated() {
		t.Error("IsCorrelated() should return false for single alert")
	}
	if !correlated.IsCorrelated() {
		t.Error("IsCorrelated() should return true for correlated alert")
	}
}

func TestAlert_BreachMagnitude(t *testing.T) {
	alert := &Alert{
		MetricValue: NumberValue(95),
		Threshold:   NumberThreshold(90),
	}

	mag, ok := alert.BreachMagnitude()
	if !ok {
		t.Fatal("BreachMagnitude() should be defined for numeric value and threshold")
	}
	want := (95.0 - 90.0) / 90.0
	if diff := mag - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("BreachMagnitude() = %v, want %v", mag, want)
	}

	// Breaches below the threshold measure the same way.
	below := &Alert{
		MetricValue: NumberValue(5),
		Threshold:   NumberThreshold(10),
	}
	mag, ok = below.BreachMagnitude()
	if !ok || mag != 0.5 {
		t.Errorf("BreachMagnitude() = (%v, %v), want (0.5, true)", mag, ok)
	}

	textual := &Alert{
		MetricValue: TextValue("down"),
		Threshold:   TextThreshold("down"),
	}
	if _, ok := textual.BreachMagnitude(); ok {
		t.Error("BreachMagnitude() should be undefined for textual alerts")
	}

	zeroThreshold := &Alert{
		MetricValue: NumberValue(5),
		Threshold:   NumberThreshold(0),
	}
	if _, ok := zeroThreshold.BreachMagnitude(); ok {
		t.Error("BreachMagnitude() should be undefined for a zero threshold")
	}
}
