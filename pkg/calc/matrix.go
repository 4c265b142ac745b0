package calc

import (
	"fmt"
	"math"
)

// matrix is a dense row-major square-or-rectangular float64 matrix. The
// allocation math needs only covariance, inversion and a couple of small
// products, so a minimal local type is enough.
type matrix struct {
	rows, cols int
	cells      []float64
}

func newMatrix(rows, cols int) *matrix {
	return &matrix{
		rows:  rows,
		cols:  cols,
		cells: make([]float64, rows*cols),
	}
}

func (m *matrix) at(row, col int) float64 {
	return m.cells[row*m.cols+col]
}

func (m *matrix) set(row, col int, value float64) {
	m.cells[row*m.cols+col] = value
}

// covariance computes the sample covariance matrix of a returns matrix
// whose rows are instruments and columns are observations.
func covariance(returns *matrix) *matrix {
	instruments := returns.rows
	observations := returns.cols

	means := make([]float64, instruments)
	for i := 0; i < instruments; i++ {
		sum := 0.0
		for k := 0; k < observations; k++ {
			sum += returns.at(i, k)
		}
		means[i] = sum / float64(observations)
	}

	sigma := newMatrix(instruments, instruments)
	for i := 0; i < instruments; i++ {
		for j := i; j < instruments; j++ {
			sum := 0.0
			for k := 0; k < observations; k++ {
				sum += (returns.at(i, k) - means[i]) *
					(returns.at(j, k) - means[j])
			}
			cov := sum / float64(observations-1)
			sigma.set(i, j, cov)
			sigma.set(j, i, cov)
		}
	}

	return sigma
}

const singularityEpsilon = 1e-12

// inverse inverts a square matrix by Gauss-Jordan elimination with partial
// pivoting. A pivot below singularityEpsilon means the matrix is not
// invertible, which for a covariance matrix indicates linearly dependent
// return series.
func inverse(m *matrix) (*matrix, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf(
			"cannot invert a [%v]x[%v] matrix",
			m.rows, m.cols,
		)
	}

	n := m.rows

	work := newMatrix(n, n)
	copy(work.cells, m.cells)

	result := newMatrix(n, n)
	for i := 0; i < n; i++ {
		result.set(i, i, 1)
	}

	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(work.at(row, col)) > math.Abs(work.at(pivot, col)) {
				pivot = row
			}
		}

		if math.Abs(work.at(pivot, col)) < singularityEpsilon {
			return nil, fmt.Errorf("matrix is not invertible")
		}

		if pivot != col {
			swapRows(work, pivot, col)
			swapRows(result, pivot, col)
		}

		scale := work.at(col, col)
		for k := 0; k < n; k++ {
			work.set(col, k, work.at(col, k)/scale)
			result.set(col, k, result.at(col, k)/scale)
		}

		for row := 0; row < n; row++ {
			if row == col {
				continue
			}
			factor := work.at(row, col)
			if factor == 0 {
				continue
			}
			for k := 0; k < n; k++ {
				work.set(row, k, work.at(row, k)-factor*work.at(col, k))
				result.set(row, k, result.at(row, k)-factor*result.at(col, k))
			}
		}
	}

	return result, nil
}

func swapRows(m *matrix, a, b int) {
	for k := 0; k < m.cols; k++ {
		av := m.at(a, k)
		m.set(a, k, m.at(b, k))
		m.set(b, k, av)
	}
}

// mulVector computes m * v for a square matrix and a column vector.
func (m *matrix) mulVector(v []float64) []float64 {
	result := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		for k := 0; k < m.cols; k++ {
			sum += m.at(i, k) * v[k]
		}
		result[i] = sum
	}
	return result
}
