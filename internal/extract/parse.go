package extract

import (
	"math"
	"strconv"
	"strings"
)

// ParseLines reads "name value [# comment]" lines into a map. Blank,
// comment and separator lines are ignored, as are lines whose value is not
// a finite number. A repeated name keeps its last value.
func ParseLines(section []string) map[string]float64 {
	stats := make(map[string]float64, len(section))
	for _, line := range section {
		s := strings.TrimSpace(line)
		if s == "" || s[0] == '#' || s[0] == '-' {
			continue
		}
		fields := strings.Fields(s)
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		stats[fields[0]] = v
	}
	return stats
}
