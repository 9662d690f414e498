// Command xirt inspects xiRT network configurations: it builds the network described by a params
// file and prints its layers or a summary, exports a Graphviz drawing of it, or flattens the params
// into CSV.
package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/xirtnet/xirt/internal/logging"
)

func main() {
	logging.ConfigureRuntime()

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("xirt failed")
		os.Exit(1)
	}
}
