package models

import "testing"

func TestNormalizeEngagement(t *testing.T) {
	tests := []struct {
		raw    string
		want   EngagementLevel
		wantOK bool
	}{
		{"engaged", EngagementEngaged, true},
		{"moderately-engaged", EngagementModerate, true},
		{"disengaged", EngagementDisengaged, true},
		{"high", EngagementEngaged, true},
		{"medium", EngagementModerate, true},
		{"low", EngagementDisengaged, true},
		{"", "", false},
		{"HIGH", "", false},
		{"distracted", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeEngagement(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizeEngagement(%q) = (%q, %v), want (%q, %v)",
				tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBoundingBoxGeometry(t *testing.T) {
	box := BoundingBox{X1: 0, Y1: 0, X2: 4, Y2: 2}

	if got := box.Area(); got != 8 {
		t.Errorf("Area() = %v, want 8", got)
	}
	if c := box.Center(); c.X != 2 || c.Y != 1 {
		t.Errorf("Center() = %v, want (2,1)", c)
	}
}

func TestTruncateError(t *testing.T) {
	long := make([]byte, MaxErrorMessageLen+100)
	for i := range long {
		long[i] = 'x'
	}

	if got := TruncateError(string(long)); len(got) != MaxErrorMessageLen {
		t.Errorf("TruncateError length = %d, want %d", len(got), MaxErrorMessageLen)
	}
	if got := TruncateError("short"); got != "short" {
		t.Errorf("TruncateError(short) = %q", got)
	}
}
