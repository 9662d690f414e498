package xirtnet

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/xirtnet/xirt"
)

const (
	towerA = SiameseName + "/a/"
	towerB = SiameseName + "/b/"
)

type layerInfo struct {
	name    string
	typ     string
	dims    []int
	params  int
	inputs  []string
	members []layerInfo
}

// params gives the number of values stored for the Node's Operator, counting shared weights only
// for the first Node using them
func params(n *xirt.Node) int {
	adj, ok := n.Operator().(xirt.Adjustable)
	if !ok {
		return 0
	} else if shared := n.SharesWith(); len(shared) != 0 && shared[0] != n {
		return 0
	}

	count := len(adj.Weights())
	if st, ok := adj.(xirt.Stateful); ok {
		count += len(st.State())
	}
	return count
}

// displayName gives the name of a Node as it appears in the summary, where each siamese tower is
// a single layer
func displayName(name string) string {
	switch {
	case strings.HasPrefix(name, towerA):
		return SiameseName + "[0]"
	case strings.HasPrefix(name, towerB):
		return SiameseName + "[1]"
	}
	return name
}

func info(n *xirt.Node, trim string) layerInfo {
	l := layerInfo{
		name:   strings.TrimPrefix(n.Name(), trim),
		typ:    "input",
		dims:   n.Dims(),
		params: params(n),
	}
	if !n.IsInput() {
		l.typ = n.Operator().TypeString()
		for _, in := range n.InputNodes() {
			if trim != "" {
				l.inputs = append(l.inputs, strings.TrimPrefix(in.Name(), trim))
			} else {
				l.inputs = append(l.inputs, displayName(in.Name()))
			}
		}
	}

	return l
}

// layers lists the layers of the model, inputs first and then the rest in order, with the siamese
// towers collapsed into one
func (x *XiRTNet) layers() []layerInfo {
	var ls []layerInfo
	tower := -1

	for _, in := range x.model.Inputs() {
		ls = append(ls, info(in, ""))
	}

	for _, n := range x.model.Nodes() {
		name := n.Name()
		switch {
		case n.IsInput():
			continue
		case strings.HasPrefix(name, towerB):
			continue
		case strings.HasPrefix(name, towerA):
			if tower < 0 {
				tower = len(ls)
				ls = append(ls, layerInfo{
					name:   SiameseName,
					typ:    "model",
					inputs: []string{SiameseA, SiameseB},
				})
			}

			m := info(n, towerA)
			t := &ls[tower]
			t.members = append(t.members, m)
			t.params += m.params
			t.dims = m.dims
		default:
			ls = append(ls, info(n, ""))
		}
	}

	return ls
}

func formatDims(dims []int) string {
	s := make([]string, len(dims))
	for i, d := range dims {
		s[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(s, ", ") + ")"
}

// PrintLayers writes the name, type and output shape of every layer of the model. The siamese
// tower, if there is one, is written as a single "siamese" layer, followed by its members.
func (x *XiRTNet) PrintLayers(w io.Writer) error {
	if x.model == nil {
		return errors.Wrap(ErrNotBuilt, "Can't print layers")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range x.layers() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.name, l.typ, formatDims(l.dims))
		for _, m := range l.members {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.name, m.typ, formatDims(m.dims))
		}
	}

	return tw.Flush()
}

// ParamOverview writes a summary of the model: a table of its layers with their number of
// parameters and inputs, followed by the total counts.
func (x *XiRTNet) ParamOverview(w io.Writer) error {
	if x.model == nil {
		return errors.Wrap(ErrNotBuilt, "Can't write param overview")
	}

	fmt.Fprintf(w, "Model: %q\n", x.model.Name())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Layer (type)\tOutput Shape\tParam #\tConnected to")
	for _, l := range x.layers() {
		fmt.Fprintf(tw, "%s (%s)\t%s\t%d\t%s\n", l.name, l.typ, formatDims(l.dims), l.params, strings.Join(l.inputs, ", "))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	trainable, fixed := x.model.ParamCount()
	_, err := fmt.Fprintf(w, "%s\nTotal params: %d\nTrainable params: %d\nNon-trainable params: %d\n",
		strings.Repeat("=", 60), trainable+fixed, trainable, fixed)
	return err
}
