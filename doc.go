// Package xirt provides a small framework for building and training the graph-structured neural
// networks used to predict peptide retention behaviour. The network builder itself lives in the
// subpackage "xirtnet"; this package is the engine underneath it.
//
// # Creating Networks
//
// The center of all training is the Network, initialized by:
//
//	net := xirt.New("example")
//
// Networks consist of graphs of Nodes, which are analogous to the typical layer or activation
// function. Each Node has an Operator, which determines its values and the backpropagation through
// it. Operators with weights (such as Dense layers) are Adjustable, and additionally use an
// Optimizer and an Initializer. All Operators can be found in the subpackage "operators", all
// Optimizers in "optimizers", and so forth, for other types.
//
// The standard procedure for adding Nodes to the Network is:
//
//	in := net.AddInput("in", []int{inputSize})
//	hl := net.Add("hidden", operators.Dense(size), in)
//	hl.Opt(optimizers.SGD()).AddHP("learning-rate", hyperparams.Constant(0.1))
//
//	if net.Error() != nil {
//		return net.Error()
//	}
//
// All Nodes have a shape (in terms of their dimensions). Input Nodes are given theirs explicitly;
// for all others the dimensions are given by the Operator.
//
// # Sharing Weights
//
// Giving the same Adjustable Operator to more than one Node makes those Nodes share their weights.
// The weights are initialized once, and the gradients from every Node using them are summed before
// the Optimizer is run:
//
//	dense := operators.Dense(16)
//	a := net.Add("a", dense, left)
//	b := net.Add("b", dense, right)
//
// The network can be finished by providing a cost function:
//
//	err := net.Finalize(costfuncs.MSE(), out)
//
// # Training and Testing
//
// Training is done with the custom type Datum, which contains two slices of float64 for inputs
// and correct outputs for the Network. All training is done with the function Train:
//
//	func (net *Network) Train(args TrainArgs) error
//
// Testing can be done both during training (see TrainArgs) and through a separate function, Test:
//
//	func (net *Network) Test(data DataSupplier, isCorrect func([]float64, []float64) bool) (float64, float64, error)
//
// # Saving and Loading
//
// Weights are written as JSON with SaveWeights and read back with LoadWeights, or with the file
// helpers Save and Load. The structure of the Network is not saved; it must be rebuilt first.
package xirt
