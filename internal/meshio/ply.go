package meshio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/arbor/internal/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	plyASCII        = "ascii"
	plyLittleEndian = "binary_little_endian"
	plyBigEndian    = "binary_big_endian"
)

var plyScalarSize = map[string]int{
	"char": 1, "int8": 1, "uchar": 1, "uint8": 1,
	"short": 2, "int16": 2, "ushort": 2, "uint16": 2,
	"int": 4, "int32": 4, "uint": 4, "uint32": 4,
	"float": 4, "float32": 4, "double": 8, "float64": 8,
}

type plyProperty struct {
	name      string
	typ       string // scalar type, or item type of a list
	countType string // set for list properties
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	format   string
	elements []plyElement
}

// WritePLY encodes shape as ASCII PLY with double precision coordinates.
func WritePLY(w io.Writer, shape *mesh.Shape) error {
	bw := bufio.NewWriter(w)
	writePLYHeader(bw, plyASCII, "double", shape)
	hasNormals := len(shape.Normals) == len(shape.Positions) && len(shape.Normals) > 0
	for i, p := range shape.Positions {
		bw.WriteString(formatFloats(p.X, p.Y, p.Z))
		if hasNormals {
			n := shape.Normals[i]
			bw.WriteByte(' ')
			bw.WriteString(formatFloats(n.X, n.Y, n.Z))
		}
		bw.WriteByte('\n')
	}
	for _, t := range shape.Triangles {
		fmt.Fprintf(bw, "3 %d %d %d\n", t[0], t[1], t[2])
	}
	for _, q := range shape.Quads {
		fmt.Fprintf(bw, "4 %d %d %d %d\n", q[0], q[1], q[2], q[3])
	}
	for _, l := range shape.Lines {
		fmt.Fprintf(bw, "%d %d\n", l[0], l[1])
	}
	return bw.Flush()
}

// WritePLYBinary encodes shape as binary little-endian PLY with single
// precision coordinates.
func WritePLYBinary(w io.Writer, shape *mesh.Shape) error {
	bw := bufio.NewWriter(w)
	writePLYHeader(bw, plyLittleEndian, "float", shape)
	le := binary.LittleEndian
	var buf [4]byte
	f32 := func(v float64) {
		le.PutUint32(buf[:], math.Float32bits(float32(v)))
		bw.Write(buf[:])
	}
	i32 := func(v int) {
		le.PutUint32(buf[:], uint32(int32(v)))
		bw.Write(buf[:])
	}
	hasNormals := len(shape.Normals) == len(shape.Positions) && len(shape.Normals) > 0
	for i, p := range shape.Positions {
		f32(p.X)
		f32(p.Y)
		f32(p.Z)
		if hasNormals {
			n := shape.Normals[i]
			f32(n.X)
			f32(n.Y)
			f32(n.Z)
		}
	}
	for _, t := range shape.Triangles {
		bw.WriteByte(3)
		for _, v := range t {
			i32(v)
		}
	}
	for _, q := range shape.Quads {
		bw.WriteByte(4)
		for _, v := range q {
			i32(v)
		}
	}
	for _, l := range shape.Lines {
		i32(l[0])
		i32(l[1])
	}
	return bw.Flush()
}

func writePLYHeader(w *bufio.Writer, format, coordType string, shape *mesh.Shape) {
	fmt.Fprintf(w, "ply\nformat %s 1.0\ncomment generated by arbor\n", format)
	fmt.Fprintf(w, "element vertex %d\n", len(shape.Positions))
	for _, c := range []string{"x", "y", "z"} {
		fmt.Fprintf(w, "property %s %s\n", coordType, c)
	}
	if len(shape.Normals) == len(shape.Positions) && len(shape.Normals) > 0 {
		for _, c := range []string{"nx", "ny", "nz"} {
			fmt.Fprintf(w, "property %s %s\n", coordType, c)
		}
	}
	if faces := len(shape.Triangles) + len(shape.Quads); faces > 0 {
		fmt.Fprintf(w, "element face %d\nproperty list uchar int vertex_indices\n", faces)
	}
	if len(shape.Lines) > 0 {
		fmt.Fprintf(w, "element edge %d\nproperty int vertex1\nproperty int vertex2\n", len(shape.Lines))
	}
	w.WriteString("end_header\n")
}

func formatFloats(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// ReadPLY decodes ASCII or binary PLY. Vertices without faces or edges are
// returned as points.
func ReadPLY(r *bufio.Reader) (*mesh.Shape, error) {
	h, err := readPLYHeader(r)
	if err != nil {
		return nil, err
	}

	var vr plyValueReader
	switch h.format {
	case plyASCII:
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), 1024*1024)
		sc.Split(bufio.ScanWords)
		vr = &plyASCIIReader{sc: sc}
	case plyLittleEndian:
		vr = &plyBinaryReader{r: r, order: binary.LittleEndian}
	case plyBigEndian:
		vr = &plyBinaryReader{r: r, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: ply format %q", ErrUnsupportedFormat, h.format)
	}

	shape := &mesh.Shape{}
	for _, el := range h.elements {
		if err := readPLYElement(vr, el, shape); err != nil {
			return nil, err
		}
	}
	if len(shape.Triangles) == 0 && len(shape.Quads) == 0 && len(shape.Lines) == 0 {
		shape.Points = make([]int, len(shape.Positions))
		for i := range shape.Points {
			shape.Points[i] = i
		}
	}
	return shape, nil
}

func readPLYHeader(r *bufio.Reader) (*plyHeader, error) {
	h := &plyHeader{}
	first := true
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: truncated ply header", ErrMalformed)
		}
		fields := strings.Fields(line)
		if first {
			if len(fields) != 1 || fields[0] != "ply" {
				return nil, fmt.Errorf("%w: missing ply magic", ErrMalformed)
			}
			first = false
			continue
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: bad format line", ErrMalformed)
			}
			h.format = fields[1]
		case "comment", "obj_info":
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("%w: bad element line %q", ErrMalformed, strings.TrimSpace(line))
			}
			n, err := strconv.Atoi(fields[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bad element count %q", ErrMalformed, fields[2])
			}
			h.elements = append(h.elements, plyElement{name: fields[1], count: n})
		case "property":
			if len(h.elements) == 0 {
				return nil, fmt.Errorf("%w: property before element", ErrMalformed)
			}
			el := &h.elements[len(h.elements)-1]
			var p plyProperty
			switch {
			case len(fields) == 5 && fields[1] == "list":
				p = plyProperty{name: fields[4], typ: fields[3], countType: fields[2]}
			case len(fields) == 3:
				p = plyProperty{name: fields[2], typ: fields[1]}
			default:
				return nil, fmt.Errorf("%w: bad property line %q", ErrMalformed, strings.TrimSpace(line))
			}
			if _, ok := plyScalarSize[p.typ]; !ok {
				return nil, fmt.Errorf("%w: property type %q", ErrUnsupportedFormat, p.typ)
			}
			if _, ok := plyScalarSize[p.countType]; p.countType != "" && !ok {
				return nil, fmt.Errorf("%w: list count type %q", ErrUnsupportedFormat, p.countType)
			}
			el.props = append(el.props, p)
		case "end_header":
			if h.format == "" {
				return nil, fmt.Errorf("%w: missing format line", ErrMalformed)
			}
			return h, nil
		default:
			return nil, fmt.Errorf("%w: unknown header keyword %q", ErrMalformed, fields[0])
		}
	}
}

func readPLYElement(vr plyValueReader, el plyElement, shape *mesh.Shape) error {
	propIndex := make(map[string]int, len(el.props))
	for i, p := range el.props {
		propIndex[p.name] = i
	}
	scalars := make([]float64, len(el.props))
	var list []int

	for n := 0; n < el.count; n++ {
		list = list[:0]
		for i, p := range el.props {
			if p.countType == "" {
				v, err := vr.scalar(p.typ)
				if err != nil {
					return fmt.Errorf("%s %d: %w", el.name, n, err)
				}
				scalars[i] = v
				continue
			}
			count, err := vr.scalar(p.countType)
			if err != nil {
				return fmt.Errorf("%s %d: %w", el.name, n, err)
			}
			for k := 0; k < int(count); k++ {
				v, err := vr.scalar(p.typ)
				if err != nil {
					return fmt.Errorf("%s %d: %w", el.name, n, err)
				}
				if p.name == "vertex_indices" || p.name == "vertex_index" {
					list = append(list, int(v))
				}
			}
		}

		switch el.name {
		case "vertex":
			get := func(name string) float64 {
				if i, ok := propIndex[name]; ok {
					return scalars[i]
				}
				return 0
			}
			shape.Positions = append(shape.Positions, r3.Vec{X: get("x"), Y: get("y"), Z: get("z")})
			if _, ok := propIndex["nx"]; ok {
				shape.Normals = append(shape.Normals, r3.Vec{X: get("nx"), Y: get("ny"), Z: get("nz")})
			}
		case "face":
			if err := addPolygon(shape, list); err != nil {
				return fmt.Errorf("face %d: %w", n, err)
			}
		case "edge":
			a, okA := propIndex["vertex1"]
			b, okB := propIndex["vertex2"]
			if !okA || !okB {
				return fmt.Errorf("%w: edge element without vertex1/vertex2", ErrMalformed)
			}
			shape.Lines = append(shape.Lines, [2]int{int(scalars[a]), int(scalars[b])})
		}
	}
	return nil
}

// addPolygon stores 3- and 4-sided faces as-is and fans larger ones.
func addPolygon(shape *mesh.Shape, idx []int) error {
	switch {
	case len(idx) < 3:
		return fmt.Errorf("%w: polygon with %d vertices", ErrMalformed, len(idx))
	case len(idx) == 3:
		shape.Triangles = append(shape.Triangles, [3]int{idx[0], idx[1], idx[2]})
	case len(idx) == 4:
		shape.Quads = append(shape.Quads, [4]int{idx[0], idx[1], idx[2], idx[3]})
	default:
		for k := 1; k+1 < len(idx); k++ {
			shape.Triangles = append(shape.Triangles, [3]int{idx[0], idx[k], idx[k+1]})
		}
	}
	return nil
}

type plyValueReader interface {
	scalar(typ string) (float64, error)
}

type plyASCIIReader struct {
	sc *bufio.Scanner
}

func (a *plyASCIIReader) scalar(string) (float64, error) {
	if !a.sc.Scan() {
		if err := a.sc.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: unexpected end of data", ErrMalformed)
	}
	v, err := strconv.ParseFloat(a.sc.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryReader) scalar(typ string) (float64, error) {
	size := plyScalarSize[typ]
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch typ {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default:
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}
