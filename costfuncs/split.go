package costfuncs

import (
	"github.com/pkg/errors"
	"github.com/xirtnet/xirt"
)

// Part is one section of the outputs of a Network, with its own CostFunction. The cost of the part
// is multiplied by Weight in the total.
type Part struct {
	Name   string
	Size   int
	Weight float64
	Cost   xirt.CostFunction
}

type split struct {
	parts []Part
	size  int
}

// Split returns a CostFunction for Networks with multiple outputs, where each consecutive section
// of the output values is evaluated by a different CostFunction. The total cost is the weighted sum
// of the cost of each part.
func Split(parts ...Part) (*split, error) {
	if len(parts) == 0 {
		return nil, errors.Errorf("Split requires at least one part")
	}

	s := &split{parts: parts}
	for i, p := range parts {
		if p.Size < 1 {
			return nil, errors.Errorf("Size of part %d (%q) must be >= 1 (%d)", i, p.Name, p.Size)
		} else if p.Cost == nil {
			return nil, errors.Wrapf(xirt.NilArgError{Arg: "CostFunction"}, "Part %d (%q)", i, p.Name)
		}

		s.size += p.Size
	}

	return s, nil
}

func (s *split) TypeString() string {
	return "split"
}

// Size returns the total number of outputs the CostFunction expects.
func (s *split) Size() int {
	return s.size
}

// Parts returns a copy of the parts of the CostFunction.
func (s *split) Parts() []Part {
	return append([]Part(nil), s.parts...)
}

// Cost returns the weighted sum of the cost of each part. It will panic if the number of outputs
// is not equal to Size.
func (s *split) Cost(outs, targets []float64) float64 {
	if len(outs) != s.size {
		panic(xirt.SizeMismatchError{Expected: s.size, Got: len(outs), What: "outputs"})
	}

	var sum, pos = 0.0, 0
	for _, p := range s.parts {
		sum += p.Weight * p.Cost.Cost(outs[pos:pos+p.Size], targets[pos:pos+p.Size])
		pos += p.Size
	}

	return sum
}

func (s *split) Derivs(outs, targets []float64) []float64 {
	if len(outs) != s.size {
		panic(xirt.SizeMismatchError{Expected: s.size, Got: len(outs), What: "outputs"})
	}

	ds := make([]float64, 0, len(outs))
	pos := 0
	for _, p := range s.parts {
		for _, d := range p.Cost.Derivs(outs[pos:pos+p.Size], targets[pos:pos+p.Size]) {
			ds = append(ds, p.Weight*d)
		}
		pos += p.Size
	}

	return ds
}

// PartCosts returns the unweighted cost of each part, by name.
func (s *split) PartCosts(outs, targets []float64) map[string]float64 {
	costs := make(map[string]float64, len(s.parts))

	pos := 0
	for _, p := range s.parts {
		costs[p.Name] = p.Cost.Cost(outs[pos:pos+p.Size], targets[pos:pos+p.Size])
		pos += p.Size
	}

	return costs
}
