package table

// internal Float64 matrix representation, used for the averaged
// count tables produced after burn-in sampling
type Float64Matrix struct {
	nrow int
	ncol int
	data []float64
}

// NewFloat64Matrix creates a new Float64Matrix with r rows and c columns
func NewFloat64Matrix(r, c int) *Float64Matrix {
	if r <= 0 || c <= 0 {
		panic(ErrBadShape)
	}
	return &Float64Matrix{
		nrow: r,
		ncol: c,
		data: make([]float64, r*c),
	}
}

// Float64MatrixFrom wraps an existing row major slice. The slice length
// must equal r*c.
func Float64MatrixFrom(r, c int, data []float64) *Float64Matrix {
	if r <= 0 || c <= 0 || len(data) != r*c {
		panic(ErrBadShape)
	}
	return &Float64Matrix{nrow: r, ncol: c, data: data}
}

// get the shape of the matrix
func (m *Float64Matrix) Shape() (int, int) {
	return m.nrow, m.ncol
}

// get the [r, c]-th element of the matrix
func (m *Float64Matrix) Get(r, c int) float64 {
	if r < 0 || r >= m.nrow || c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol+c]
}

// set val to the [r, c]-th element of the matrix
func (m *Float64Matrix) Set(r, c int, val float64) {
	if r < 0 || r >= m.nrow || c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] = val
}

// Data exposes the row major backing slice
func (m *Float64Matrix) Data() []float64 {
	return m.data
}
