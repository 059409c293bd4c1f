package domain

// Window is a rectangular block of grid cells.
type Window struct {
	Row, Col   int // Offset of the top-left cell.
	Rows, Cols int
}

// Empty reports whether the window covers no cells.
func (w Window) Empty() bool {
	return w.Rows <= 0 || w.Cols <= 0
}

// Contains reports whether cell (i, j) lies inside the window.
func (w Window) Contains(i, j int) bool {
	return i >= w.Row && i < w.Row+w.Rows && j >= w.Col && j < w.Col+w.Cols
}

// Union returns the smallest window covering both w and o.
func (w Window) Union(o Window) Window {
	if w.Empty() {
		return o
	}
	if o.Empty() {
		return w
	}
	row0 := min(w.Row, o.Row)
	col0 := min(w.Col, o.Col)
	row1 := max(w.Row+w.Rows, o.Row+o.Rows)
	col1 := max(w.Col+w.Cols, o.Col+o.Cols)
	return Window{Row: row0, Col: col0, Rows: row1 - row0, Cols: col1 - col0}
}

// Mask holds per-cell membership values over a Grid.
//
// Only the cells inside Window are stored; everything else is zero. Binary
// masks store 0 or 1, fractional masks store the covered fraction in [0, 1].
type Mask struct {
	Grid   Grid
	Window Window
	Values []float32 // Row-major over Window.
}

// NewMask creates an all-zero mask storing the cells of w.
func NewMask(g Grid, w Window) *Mask {
	if w.Empty() {
		w = Window{}
	}
	return &Mask{
		Grid:   g,
		Window: w,
		Values: make([]float32, w.Rows*w.Cols),
	}
}

// At returns the value of cell (i, j).
func (m *Mask) At(i, j int) float64 {
	if !m.Window.Contains(i, j) {
		return 0
	}
	return float64(m.Values[m.offset(i, j)])
}

// Set assigns the value of cell (i, j), growing the window if needed.
func (m *Mask) Set(i, j int, v float64) {
	if !m.Window.Contains(i, j) {
		if v == 0 {
			return
		}
		m.grow(Window{Row: i, Col: j, Rows: 1, Cols: 1})
	}
	m.Values[m.offset(i, j)] = float32(v)
}

// Add accumulates o into m cell by cell.
func (m *Mask) Add(o *Mask) {
	if o == nil || o.Window.Empty() {
		return
	}
	m.grow(o.Window)
	o.Range(func(i, j int, v float64) {
		m.Values[m.offset(i, j)] += float32(v)
	})
}

// Range calls fn for every cell with a non-zero value, row by row.
func (m *Mask) Range(fn func(i, j int, v float64)) {
	w := m.Window
	for r := 0; r < w.Rows; r++ {
		row := m.Values[r*w.Cols : (r+1)*w.Cols]
		for c, v := range row {
			if v != 0 {
				fn(w.Row+r, w.Col+c, float64(v))
			}
		}
	}
}

// Count returns the number of cells with a positive value.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Values {
		if v > 0 {
			n++
		}
	}
	return n
}

// Sum returns the total of all cell values.
func (m *Mask) Sum() float64 {
	var s float64
	for _, v := range m.Values {
		s += float64(v)
	}
	return s
}

// Max returns the largest cell value (0 for an empty mask).
func (m *Mask) Max() float64 {
	var hi float32
	for _, v := range m.Values {
		if v > hi {
			hi = v
		}
	}
	return float64(hi)
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Grid: m.Grid, Window: m.Window, Values: make([]float32, len(m.Values))}
	copy(c.Values, m.Values)
	return c
}

// Dense expands the mask into a full row-major grid array.
func (m *Mask) Dense() []float32 {
	out := make([]float32, m.Grid.Size())
	m.DenseInto(out)
	return out
}

// DenseInto writes the full grid array into dst, which must hold Grid.Size() values.
func (m *Mask) DenseInto(dst []float32) {
	clear(dst)
	w := m.Window
	for r := 0; r < w.Rows; r++ {
		start := (w.Row+r)*m.Grid.Cols + w.Col
		copy(dst[start:start+w.Cols], m.Values[r*w.Cols:(r+1)*w.Cols])
	}
}

// MaskFromDense builds a mask from a full grid array, keeping only the
// smallest window holding every non-zero cell.
func MaskFromDense(g Grid, values []float32) *Mask {
	row0, row1, col0, col1 := g.Rows, -1, g.Cols, -1
	for i := 0; i < g.Rows; i++ {
		for j, v := range values[i*g.Cols : (i+1)*g.Cols] {
			if v == 0 {
				continue
			}
			row0 = min(row0, i)
			row1 = max(row1, i)
			col0 = min(col0, j)
			col1 = max(col1, j)
		}
	}
	if row1 < 0 {
		return NewMask(g, Window{})
	}
	m := NewMask(g, Window{Row: row0, Col: col0, Rows: row1 - row0 + 1, Cols: col1 - col0 + 1})
	for r := 0; r < m.Window.Rows; r++ {
		start := (row0+r)*g.Cols + col0
		copy(m.Values[r*m.Window.Cols:(r+1)*m.Window.Cols], values[start:start+m.Window.Cols])
	}
	return m
}

func (m *Mask) offset(i, j int) int {
	return (i-m.Window.Row)*m.Window.Cols + (j - m.Window.Col)
}

func (m *Mask) grow(w Window) {
	u := m.Window.Union(w)
	if u == m.Window {
		return
	}
	values := make([]float32, u.Rows*u.Cols)
	old := m.Window
	for r := 0; r < old.Rows; r++ {
		dst := (old.Row-u.Row+r)*u.Cols + (old.Col - u.Col)
		copy(values[dst:dst+old.Cols], m.Values[r*old.Cols:(r+1)*old.Cols])
	}
	m.Window = u
	m.Values = values
}
