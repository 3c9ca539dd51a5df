package table

// internal Int32 matrix representation
type Int32Matrix struct {
	nrow int
	ncol int
	data []int32
}

// NewInt32Matrix creates a new Int32Matrix with r rows and c columns.
// if r <= 0 or c <= 0, it will panic. An int32 slice is used as the
// underlying storage and the data layout is in row major order, i.e.
// the (i*c + j)-th element in the data slice is the [i, j]-th element
// in the matrix. Vector is defined as a matrix with one column.
func NewInt32Matrix(r, c int) *Int32Matrix {
	if r <= 0 || c <= 0 {
		panic(ErrBadShape)
	}
	return &Int32Matrix{
		nrow: r,
		ncol: c,
		data: make([]int32, r*c),
	}
}

// get the shape of the matrix
func (m *Int32Matrix) Shape() (int, int) {
	return m.nrow, m.ncol
}

// get the [r, c]-th element of the matrix
func (m *Int32Matrix) Get(r, c int) int32 {
	if r < 0 || r >= m.nrow || c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	return m.data[r*m.ncol+c]
}

// set val to the [r, c]-th element of the matrix
func (m *Int32Matrix) Set(r, c int, val int32) {
	if r < 0 || r >= m.nrow || c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] = val
}

// increment the [r, c]-th element of the matrix by one
func (m *Int32Matrix) Incr(r, c int) {
	if r < 0 || r >= m.nrow || c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] += 1
}

// decrement the [r, c]-th element of the matrix by one
func (m *Int32Matrix) Decr(r, c int) {
	if r < 0 || r >= m.nrow || c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	m.data[r*m.ncol+c] -= 1
}

// get a copy of the r-th row of the matrix
func (m *Int32Matrix) Row(r int) []int32 {
	if r < 0 || r >= m.nrow {
		panic(ErrIndexOutOfRange)
	}
	row := make([]int32, m.ncol)
	copy(row, m.data[r*m.ncol:(r+1)*m.ncol])
	return row
}

// sum of the r-th row
func (m *Int32Matrix) RowSum(r int) int32 {
	if r < 0 || r >= m.nrow {
		panic(ErrIndexOutOfRange)
	}
	sum := int32(0)
	for _, v := range m.data[r*m.ncol : (r+1)*m.ncol] {
		sum += v
	}
	return sum
}

// sum of the c-th column
func (m *Int32Matrix) ColSum(c int) int32 {
	if c < 0 || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	sum := int32(0)
	for r := 0; r < m.nrow; r += 1 {
		sum += m.data[r*m.ncol+c]
	}
	return sum
}

// Data exposes the row major backing slice. The sampler reads count
// rows through this to avoid a copy per token.
func (m *Int32Matrix) Data() []int32 {
	return m.data
}
