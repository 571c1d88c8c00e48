package gradedomain

import "testing"

func TestLadder_Next(t *testing.T) {
	l := DefaultLadder
	tests := []struct {
		name   string
		in     Marker
		want   Marker
		wantOK bool
	}{
		{name: "floor advances", in: Grade(9), want: Grade(10), wantOK: true},
		{name: "mid advances", in: Grade(11), want: Grade(12), wantOK: true},
		{name: "ceiling rolls to alumni", in: Grade(12), want: Alumni, wantOK: true},
		{name: "above ceiling rolls to alumni", in: Grade(13), want: Alumni, wantOK: true},
		{name: "below floor advances", in: Grade(7), want: Grade(8), wantOK: true},
		{name: "alumni has no successor", in: Alumni, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.Next(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Next(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Next(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLadder_Previous(t *testing.T) {
	l := DefaultLadder
	tests := []struct {
		name   string
		in     Marker
		want   Marker
		wantOK bool
	}{
		{name: "alumni steps back to ceiling", in: Alumni, want: Grade(12), wantOK: true},
		{name: "ceiling steps back", in: Grade(12), want: Grade(11), wantOK: true},
		{name: "above floor steps back", in: Grade(10), want: Grade(9), wantOK: true},
		{name: "floor is a no-op", in: Grade(9), wantOK: false},
		{name: "below floor is a no-op", in: Grade(8), wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.Previous(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Previous(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Previous(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLadder_NextPreviousInverseInsideRange(t *testing.T) {
	l := DefaultLadder
	for g := l.Floor + 1; g < l.Ceiling; g++ {
		next, _ := l.Next(Grade(g))
		back, _ := l.Previous(next)
		if back != Grade(g) {
			t.Errorf("Previous(Next(%d)) = %v", g, back)
		}
		prev, _ := l.Previous(Grade(g))
		fwd, _ := l.Next(prev)
		if fwd != Grade(g) {
			t.Errorf("Next(Previous(%d)) = %v", g, fwd)
		}
	}
}

func TestLadder_BoundsIgnoreCatalog(t *testing.T) {
	l := Ladder{Floor: 1, Ceiling: 3}
	if got, _ := l.Next(Grade(3)); got != Alumni {
		t.Errorf("Next(3) = %v, want ALUMNI", got)
	}
	if _, ok := l.Previous(Grade(1)); ok {
		t.Errorf("Previous(1) should be a no-op")
	}
}

func TestMarker_String(t *testing.T) {
	if got := Grade(10).String(); got != "10" {
		t.Errorf("Grade(10).String() = %q", got)
	}
	if got := Alumni.String(); got != "ALUMNI" {
		t.Errorf("Alumni.String() = %q", got)
	}
	if !(Marker{}).IsZero() || Alumni.IsZero() {
		t.Errorf("IsZero mismatch")
	}
}

func TestLadder_Markers(t *testing.T) {
	got := DefaultLadder.Markers()
	want := []Marker{Grade(9), Grade(10), Grade(11), Grade(12), Alumni}
	if len(got) != len(want) {
		t.Fatalf("got %d markers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Markers()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
