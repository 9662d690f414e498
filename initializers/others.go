package initializers

import (
	"github.com/xirtnet/xirt"
	"gonum.org/v1/gonum/mat"
)

type random struct {
	RNG
}

// Random returns an Initializer that uses the provided RNG to generate the weights. There is no
// scaling beyond that of the RNG.
func Random(g RNG) random {
	return random{g}
}

// Set is the implementation of xirt.Initializer
func (r random) Set(n *xirt.Node, ws []float64) {
	for i := 0; i < len(ws); i++ {
		ws[i] = r.Gen()
	}
}

type zeros int8

// Zeros returns an Initializer that sets all weights to zero.
func Zeros() zeros {
	return zeros(0)
}

func (z zeros) Set(n *xirt.Node, ws []float64) {
	for i := range ws {
		ws[i] = 0
	}
}

// LeCun returns the LeCun normal initializer: a truncated normal distribution scaled by the number
// of inputs.
func LeCun() *varianceScaling {
	return VarianceScaling().In()
}

// He returns the He normal initializer, which is LeCun with a factor of 2.
func He() *varianceScaling {
	return VarianceScaling().In().Factor(2)
}

// Glorot returns the Glorot uniform initializer, scaled by the average of the number of inputs and
// outputs.
func Glorot() *varianceScaling {
	return VarianceScaling().Avg().Uniform()
}

// Orthogonal fills ws, taken as a rows×cols matrix stored row-major, so that its columns are
// orthonormal (or its rows, if rows < cols).
func Orthogonal(rows, cols int, ws []float64) {
	r, c := rows, cols
	if rows < cols {
		r, c = cols, rows
	}

	a := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.Set(i, j, source.NormFloat64())
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var q, rm mat.Dense
	qr.QTo(&q)
	qr.RTo(&rm)

	// the signs of the diagonal of R make the decomposition unique
	out := mat.NewDense(rows, cols, ws)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := q.At(i, j)
			if rm.At(j, j) < 0 {
				v = -v
			}

			if rows < cols {
				out.Set(j, i, v)
			} else {
				out.Set(i, j, v)
			}
		}
	}
}

type orthogonal int8

// OrthogonalInit returns an Initializer using Orthogonal, where the weights are taken to have one
// row for each of the Node's values.
func OrthogonalInit() orthogonal {
	return orthogonal(0)
}

func (o orthogonal) Set(n *xirt.Node, ws []float64) {
	rows := n.Size()
	if rows < 1 || len(ws)%rows != 0 {
		rows = 1
	}

	Orthogonal(rows, len(ws)/rows, ws)
}
