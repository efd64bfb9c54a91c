package scenario

import (
	"io"
	"strconv"
	"strings"

	"dronefeed/internal/model"
)

// Paths projects routes onto the ground plane for submission.
func Paths(routes []model.Route) [][][2]float64 {
	out := make([][][2]float64, 0, len(routes))
	for _, r := range routes {
		out = append(out, r.XY())
	}
	return out
}

// FormatSubmission renders paths as [[(x,y),(x,y)],[...]]. precision is the
// number of decimals; 0 rounds to integers. No paths renders as [].
func FormatSubmission(paths [][][2]float64, precision int) string {
	var b strings.Builder
	b.WriteByte('[')
	first := true
	for _, p := range paths {
		if len(p) == 0 {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteByte('[')
		for i, xy := range p {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('(')
			b.WriteString(formatCoord(xy[0], precision))
			b.WriteByte(',')
			b.WriteString(formatCoord(xy[1], precision))
			b.WriteByte(')')
		}
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

// WriteSubmission writes FormatSubmission output followed by a newline.
func WriteSubmission(w io.Writer, paths [][][2]float64, precision int) error {
	_, err := io.WriteString(w, FormatSubmission(paths, precision)+"\n")
	return err
}

func formatCoord(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if s == "-0" {
		return "0"
	}
	return s
}
