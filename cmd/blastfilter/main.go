// Command blastfilter splits, filters and aggregates BLAST tabular reports without the web server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/yumyai/blastview/internal/config"
	"github.com/yumyai/blastview/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "blastfilter: %v\n", err)
		os.Exit(1)
	}

	cmdRoot := newRootCmd(afero.NewOsFs(), cfg)
	// cobra prints the error itself
	err = cmdRoot.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
