package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// WriteASC writes one "X Y Z" line per point in the CloudCompare ASCII
// layout, preceded by a comment header.
func WriteASC(w io.Writer, points []r3.Vec) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Exported points\n# Format: X Y Z\n")
	for _, p := range points {
		fmt.Fprintf(bw, "%.6f %.6f %.6f\n", p.X, p.Y, p.Z)
	}
	return bw.Flush()
}

// ReadASC parses whitespace or comma separated point lines. Columns after
// the third are ignored, as are blank lines and lines starting with '#' or
// "//".
func ReadASC(r io.Reader) ([]r3.Vec, error) {
	var points []r3.Vec
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: %w: expected X Y Z", lineNo, ErrMalformed)
		}
		var c [3]float64
		for i := range c {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %v", lineNo, ErrMalformed, err)
			}
			c[i] = v
		}
		points = append(points, r3.Vec{X: c[0], Y: c[1], Z: c[2]})
	}
	return points, sc.Err()
}
