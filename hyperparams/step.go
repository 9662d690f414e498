package hyperparams

type step struct {
	Iter int
	Val  float64
}

// Stepper is a HyperParameter with a fixed value between the iterations it steps at. It is made by
// Step.
type Stepper []step

// Step returns a HyperParameter that starts at 'base' and changes at the iterations given by Add.
func Step(base float64) *Stepper {
	s := Stepper([]step{{0, base}})
	return &s
}

// Add adds a step to the HyperParameter. Steps must be added in order of iteration.
func (s *Stepper) Add(iter int, value float64) *Stepper {
	*s = append(*s, step{iter, value})
	return s
}

func (s *Stepper) TypeString() string {
	return "step"
}

func (s *Stepper) Value(iter int) float64 {
	sl := []step(*s)
	for i := 1; i < len(sl); i++ {
		if sl[i].Iter > iter {
			return sl[i-1].Val
		}
	}

	return sl[len(sl)-1].Val
}
