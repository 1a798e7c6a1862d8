package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyboard-backend/internal/export"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "storyctl",
		Short: "Inspect and render storyboard interchange documents",
		Long: "storyctl works on exported storyboard documents (storyboard-export-*.json).\n\n" +
			"It checks them against the interchange format, prints a per-stage summary\n" +
			"and hands them to the video renderer without a running server.",
		SilenceUsage: true,
	}

	root.AddCommand(newValidateCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newRenderCmd())
	return root
}

// loadDocument reads and validates the document at path ("-" for stdin).
func loadDocument(cmd *cobra.Command, path string) (*export.Document, error) {
	if path == "-" {
		return export.Decode(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return export.Decode(f)
}
