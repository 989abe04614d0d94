package extract

import (
	"errors"
	"strings"
)

var (
	ErrNoSections      = errors.New("no dump sections found")
	ErrAmbiguousReport = errors.New("report has exactly two dump sections")
)

// Markers are the literal strings bounding one statistics dump.
type Markers struct {
	Begin string
	End   string
}

// SelectSection splits lines into dump sections and returns the region of
// interest: the second section when there are three or more, the only one
// when there is exactly one. A section ends at the first end marker after its
// begin marker, at the next begin marker, or at end of input. The returned
// count is the number of sections found.
func SelectSection(lines []string, m Markers) ([]string, int, error) {
	var (
		sections [][]string
		current  []string
		open     bool
	)
	for _, line := range lines {
		switch {
		case strings.Contains(line, m.Begin):
			if open {
				sections = append(sections, current)
			}
			current, open = nil, true
		case open && m.End != "" && strings.Contains(line, m.End):
			sections = append(sections, current)
			current, open = nil, false
		case open:
			current = append(current, line)
		}
	}
	if open {
		sections = append(sections, current)
	}

	switch n := len(sections); {
	case n == 0:
		return nil, 0, ErrNoSections
	case n == 1:
		return sections[0], 1, nil
	case n == 2:
		return nil, 2, ErrAmbiguousReport
	default:
		return sections[1], n, nil
	}
}
