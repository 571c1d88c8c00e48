package gradedomain

import "strconv"

// TerminalLabel is how the terminal marker renders in messages and exports.
const TerminalLabel = "ALUMNI"

// Marker is a position in the grade progression: an ordinal grade or the
// terminal (alumni) state. The zero value is not a valid marker.
type Marker struct {
	grade    int
	terminal bool
}

// Alumni is the terminal marker. It has no successor.
var Alumni = Marker{terminal: true}

// Grade returns the ordinal marker for g.
func Grade(g int) Marker {
	return Marker{grade: g}
}

// IsTerminal reports whether m is the terminal marker.
func (m Marker) IsTerminal() bool { return m.terminal }

// IsZero reports whether m is the zero Marker.
func (m Marker) IsZero() bool { return !m.terminal && m.grade == 0 }

// Ordinal returns the grade number and false for the terminal marker.
func (m Marker) Ordinal() (int, bool) {
	if m.terminal {
		return 0, false
	}
	return m.grade, true
}

func (m Marker) String() string {
	if m.terminal {
		return TerminalLabel
	}
	return strconv.Itoa(m.grade)
}

// Ladder holds the fixed floor and ceiling of the ordinal range.
// The bounds are deployment constants; a catalog missing the floor or
// ceiling role does not move them.
type Ladder struct {
	Floor   int
	Ceiling int
}

// DefaultLadder is the 9 through 12 progression.
var DefaultLadder = Ladder{Floor: 9, Ceiling: 12}

// Next returns the marker after m. Advancing past the ceiling rolls over to
// Alumni. Alumni has no successor.
func (l Ladder) Next(m Marker) (Marker, bool) {
	if m.terminal {
		return Marker{}, false
	}
	if m.grade+1 <= l.Ceiling {
		return Grade(m.grade + 1), true
	}
	return Alumni, true
}

// Previous returns the marker before m. Alumni steps back to the ceiling and
// grades at or below the floor have no predecessor.
func (l Ladder) Previous(m Marker) (Marker, bool) {
	if m.terminal {
		return Grade(l.Ceiling), true
	}
	if m.grade <= l.Floor {
		return Marker{}, false
	}
	return Grade(m.grade - 1), true
}

// Markers lists every marker on the ladder from floor to Alumni.
func (l Ladder) Markers() []Marker {
	out := make([]Marker, 0, l.Ceiling-l.Floor+2)
	for g := l.Floor; g <= l.Ceiling; g++ {
		out = append(out, Grade(g))
	}
	return append(out, Alumni)
}
