package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/arbor/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteOBJ encodes shape as Wavefront OBJ. Normals share vertex indices.
func WriteOBJ(w io.Writer, shape *mesh.Shape) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# generated by arbor\n")
	for _, p := range shape.Positions {
		fmt.Fprintf(bw, "v %s\n", formatFloats(p.X, p.Y, p.Z))
	}
	hasNormals := len(shape.Normals) == len(shape.Positions) && len(shape.Normals) > 0
	if hasNormals {
		for _, n := range shape.Normals {
			fmt.Fprintf(bw, "vn %s\n", formatFloats(n.X, n.Y, n.Z))
		}
	}
	ref := func(i int) string {
		if hasNormals {
			return fmt.Sprintf("%d//%d", i+1, i+1)
		}
		return strconv.Itoa(i + 1)
	}
	for _, p := range shape.Points {
		fmt.Fprintf(bw, "p %d\n", p+1)
	}
	for _, l := range shape.Lines {
		fmt.Fprintf(bw, "l %d %d\n", l[0]+1, l[1]+1)
	}
	for _, t := range shape.Triangles {
		fmt.Fprintf(bw, "f %s %s %s\n", ref(t[0]), ref(t[1]), ref(t[2]))
	}
	for _, q := range shape.Quads {
		fmt.Fprintf(bw, "f %s %s %s %s\n", ref(q[0]), ref(q[1]), ref(q[2]), ref(q[3]))
	}
	return bw.Flush()
}

// ReadOBJ decodes the geometric subset of OBJ: v, vn, p, l and f records.
// Texture coordinates, groups and materials are ignored. Polylines are split
// into segments. Normals are kept only when there is one per vertex.
func ReadOBJ(r *bufio.Reader) (*mesh.Shape, error) {
	shape := &mesh.Shape{}
	var normals []r3.Vec
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			var v r3.Vec
			v, err = parseVec(fields[1:])
			shape.Positions = append(shape.Positions, v)
		case "vn":
			var v r3.Vec
			v, err = parseVec(fields[1:])
			normals = append(normals, v)
		case "p", "l", "f":
			var idx []int
			idx, err = parseRefs(fields[1:], len(shape.Positions))
			if err != nil {
				break
			}
			switch fields[0] {
			case "p":
				shape.Points = append(shape.Points, idx...)
			case "l":
				for k := 0; k+1 < len(idx); k++ {
					shape.Lines = append(shape.Lines, [2]int{idx[k], idx[k+1]})
				}
			case "f":
				err = addPolygon(shape, idx)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(normals) == len(shape.Positions) {
		shape.Normals = normals
	}
	return shape, nil
}

func parseVec(fields []string) (r3.Vec, error) {
	if len(fields) < 3 {
		return r3.Vec{}, fmt.Errorf("%w: expected 3 coordinates, got %d", ErrMalformed, len(fields))
	}
	var c [3]float64
	for i := range c {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		c[i] = v
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseRefs converts "v", "v/vt", "v//vn" or "v/vt/vn" references to
// zero-based vertex indices. Negative references count back from the
// latest vertex.
func parseRefs(fields []string, nverts int) ([]int, error) {
	idx := make([]int, 0, len(fields))
	for _, f := range fields {
		head, _, _ := strings.Cut(f, "/")
		v, err := strconv.Atoi(head)
		if err != nil || v == 0 {
			return nil, fmt.Errorf("%w: bad vertex reference %q", ErrMalformed, f)
		}
		if v < 0 {
			v = nverts + v
		} else {
			v--
		}
		idx = append(idx, v)
	}
	return idx, nil
}
