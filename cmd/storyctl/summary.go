package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"storyboard-backend/internal/export"
	"storyboard-backend/internal/model"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <file>",
		Short: "Print stages and their assets in paint order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(cmd, args[0])
			if err != nil {
				return err
			}
			writeSummary(cmd, doc)
			return nil
		},
	}
}

func writeSummary(cmd *cobra.Command, doc *export.Document) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported %s, artboard %gx%g\n\n", doc.ExportedAt, doc.Artboard.Width, doc.Artboard.Height)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTAGE\tASSET\tPOSITION\tSIZE\tROT\tANIMATION")
	for i, st := range doc.Stages {
		if len(st.Assets) == 0 {
			fmt.Fprintf(w, "%d\t%s\t-\t\t\t\t\n", i+1, st.Name)
			continue
		}

		assets := make([]export.Asset, len(st.Assets))
		copy(assets, st.Assets)
		sort.SliceStable(assets, func(a, b int) bool {
			return assets[a].LayerOrder < assets[b].LayerOrder
		})

		for j, a := range assets {
			name := ""
			if j == 0 {
				name = st.Name
			}
			anim := model.DefaultAnimation.String()
			if a.AnimationStyle != nil {
				anim = *a.AnimationStyle
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t(%g, %g)\t%gx%g\t%d\t%s\n",
				i+1, name, a.Filename, a.Position.X, a.Position.Y,
				a.Size.Width, a.Size.Height, a.Rotation, strings.ReplaceAll(anim, "_", " "))
		}
	}
	w.Flush()
}
