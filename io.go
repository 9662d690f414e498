package xirt

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// savedWeights is the format of the file written by SaveWeights. Each entry is keyed by the name
// of the first Node using the Operator.
type savedWeights struct {
	Network string               `json:"network"`
	Iter    int                  `json:"iter"`
	Weights map[string][]float64 `json:"weights"`
	State   map[string][]float64 `json:"state,omitempty"`
}

// SaveWeights writes the weights of every Adjustable Operator in the Network, along with the
// values of any Stateful Operators, as JSON. The Network must be finalized.
func (net *Network) SaveWeights(w io.Writer) error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	}

	sw := savedWeights{
		Network: net.name,
		Iter:    net.longIter,
		Weights: make(map[string][]float64),
		State:   make(map[string][]float64),
	}

	for _, ps := range net.params {
		sw.Weights[ps.nodes[0].name] = ps.adj.Weights()
	}

	seen := make(map[Stateful]bool)
	for _, n := range net.nodesByID {
		st, ok := n.op.(Stateful)
		if !ok || seen[st] {
			continue
		}

		seen[st] = true
		sw.State[n.name] = st.State()
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(sw); err != nil {
		return errors.Wrapf(err, "Failed to encode weights of Network %q", net.name)
	}

	return nil
}

// LoadWeights reads weights written by SaveWeights into a Network with the same structure. Every
// set of weights and every Stateful Operator in the Network must be present and have the same size.
// Nothing is changed if either check fails.
func (net *Network) LoadWeights(r io.Reader) error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	}

	var sw savedWeights
	if err := json.NewDecoder(r).Decode(&sw); err != nil {
		return errors.Wrapf(err, "Failed to decode weights")
	}

	for _, ps := range net.params {
		name := ps.nodes[0].name
		ws, ok := sw.Weights[name]
		if !ok {
			return errors.Errorf("No saved weights for Node %q", name)
		} else if len(ws) != len(ps.adj.Weights()) {
			return errors.Wrapf(SizeMismatchError{len(ps.adj.Weights()), len(ws), "weights"}, "Can't load weights of Node %q", name)
		}
	}

	// keyed by the first Node using each Stateful Operator, as in SaveWeights
	states := make(map[Stateful]string)
	for _, n := range net.nodesByID {
		st, ok := n.op.(Stateful)
		if !ok {
			continue
		} else if _, dup := states[st]; dup {
			continue
		}

		states[st] = n.name
		vs, ok := sw.State[n.name]
		if !ok {
			return errors.Errorf("No saved state for Node %q", n.name)
		} else if len(vs) != len(st.State()) {
			return errors.Wrapf(SizeMismatchError{len(st.State()), len(vs), "state"}, "Can't load state of Node %q", n.name)
		}
	}

	for _, ps := range net.params {
		copy(ps.adj.Weights(), sw.Weights[ps.nodes[0].name])
		for i := range ps.grads {
			ps.grads[i] = 0
		}
		ps.pending = 0
	}

	for st, name := range states {
		copy(st.State(), sw.State[name])
	}

	net.longIter = sw.Iter
	net.stat = finalized
	return nil
}

// Save writes the weights of the Network to the file at the given path, creating or truncating it.
func (net *Network) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to create file %q", path)
	}

	if err = net.SaveWeights(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// Load reads weights previously written by Save.
func (net *Network) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to open file %q", path)
	}
	defer f.Close()

	return net.LoadWeights(f)
}
