package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xirtnet/xirt/internal/logging"
	"github.com/xirtnet/xirt/xirtnet"
)

type rootOptions struct {
	params   string
	inputDim int
	siamese  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := new(rootOptions)

	cmd := &cobra.Command{
		Use:           "xirt",
		Short:         "Build and inspect xiRT retention time networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.logLevel == "" {
				return nil
			}
			level, ok := logging.ParseLevel(opts.logLevel)
			if !ok {
				return errors.Errorf("unknown log level %q", opts.logLevel)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.params, "params", "p", "", "xiRT params file (YAML or TOML)")
	flags.IntVar(&opts.inputDim, "input-dim", 50, "length of the input sequences")
	flags.StringVar(&opts.siamese, "siamese", "auto", `build the siamese model: "true", "false", or "auto" to follow siamese.use`)
	flags.StringVar(&opts.logLevel, "log-level", "", "override the log level")
	_ = cmd.MarkPersistentFlagRequired("params")

	cmd.AddCommand(
		summaryCmd(opts),
		layersCmd(opts),
		visualizeCmd(opts),
		paramsCmd(opts),
	)
	return cmd
}

// build loads the params and builds the network they describe
func (o *rootOptions) build() (*xirtnet.XiRTNet, error) {
	p, err := xirtnet.LoadParams(o.params)
	if err != nil {
		return nil, err
	}

	siamese := p.Siamese.Use
	switch o.siamese {
	case "auto":
	case "true":
		siamese = true
	case "false":
		siamese = false
	default:
		return nil, errors.Errorf("invalid --siamese value %q", o.siamese)
	}

	x := xirtnet.New(p, o.inputDim)
	if err := x.BuildModel(siamese); err != nil {
		return nil, err
	}
	return x, nil
}

func summaryCmd(opts *rootOptions) *cobra.Command {
	var compile bool

	c := &cobra.Command{
		Use:   "summary",
		Short: "Print the layers of the network with their parameter counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := opts.build()
			if err != nil {
				return err
			}
			if compile {
				if err := x.Compile(); err != nil {
					return err
				}
			}

			return x.ParamOverview(cmd.OutOrStdout())
		},
	}

	c.Flags().BoolVar(&compile, "compile", false, "also compile the network, checking losses and metrics")
	return c
}

func layersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "layers",
		Short: "Print the name, type and output shape of every layer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := opts.build()
			if err != nil {
				return err
			}

			return x.PrintLayers(cmd.OutOrStdout())
		},
	}
}

func visualizeCmd(opts *rootOptions) *cobra.Command {
	var out string

	c := &cobra.Command{
		Use:   "visualize",
		Short: "Write the network as a Graphviz DOT file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := opts.build()
			if err != nil {
				return err
			}

			if err := x.ExportVisualization(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s.dot\n", out)
			return nil
		},
	}

	c.Flags().StringVarP(&out, "out", "o", "xirt_model", "output name, without the .dot extension")
	return c
}

func paramsCmd(opts *rootOptions) *cobra.Command {
	var out string

	c := &cobra.Command{
		Use:   "params",
		Short: "Flatten the params file into a param,value CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := xirtnet.ParamsToCSV(opts.params, out)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d params to %s\n", len(rows), out)
			return nil
		},
	}

	c.Flags().StringVarP(&out, "out", "o", "xirt_params.csv", "output CSV file")
	return c
}
