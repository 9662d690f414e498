package xirtnet

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/xirtnet/xirt"
)

type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute {
	return a
}

// vizNode is a layer of the model, as a node of the exported graph
type vizNode struct {
	n *xirt.Node
}

func (v vizNode) ID() int64 {
	return int64(v.n.ID())
}

func (v vizNode) DOTID() string {
	return v.n.Name()
}

func (v vizNode) Attributes() []encoding.Attribute {
	typ := "input"
	if !v.n.IsInput() {
		typ = v.n.Operator().TypeString()
	}

	label := fmt.Sprintf("%s\n%s %s", v.n.Name(), typ, formatDims(v.n.Dims()))
	return attrs{{Key: "label", Value: label}}
}

type vizGraph struct {
	*simple.DirectedGraph
}

func (g vizGraph) DOTAttributers() (graph, node, edge encoding.Attributer) {
	return attrs{{Key: "rankdir", Value: "TB"}}, attrs{{Key: "shape", Value: "box"}}, attrs{}
}

// Graph returns the model as a directed graph, with an edge from each layer to every layer that
// takes it as input.
func (x *XiRTNet) Graph() (*simple.DirectedGraph, error) {
	if x.model == nil {
		return nil, errors.Wrap(ErrNotBuilt, "Can't make graph")
	}

	g := simple.NewDirectedGraph()
	nodes := x.model.Nodes()
	for _, n := range nodes {
		g.AddNode(vizNode{n})
	}
	for _, n := range nodes {
		for _, in := range n.InputNodes() {
			g.SetEdge(g.NewEdge(g.Node(int64(in.ID())), g.Node(int64(n.ID()))))
		}
	}

	return g, nil
}

// ExportVisualization writes the model as a Graphviz DOT file to name+".dot".
func (x *XiRTNet) ExportVisualization(name string) error {
	g, err := x.Graph()
	if err != nil {
		return errors.Wrap(err, "Can't export visualization")
	}

	b, err := dot.Marshal(vizGraph{g}, x.model.Name(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "Can't export visualization")
	}

	path := name + ".dot"
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "Can't export visualization to %s", path)
	}

	x.logger.Debug().Str("path", path).Msg("exported visualization")
	return nil
}
