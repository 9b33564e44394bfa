package main

import (
	"io"
	"strconv"

	"github.com/grafana/dynwalk/pkg/dynamic"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func tagsCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "Print the dynamic entry tags dynwalk knows by name",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			table := tablewriter.NewWriter(stdout)
			defer table.Render()

			table.SetHeader([]string{"Value", "Name"})
			table.SetAutoFormatHeaders(false)
			for _, tag := range dynamic.KnownTags() {
				table.Append([]string{strconv.FormatInt(tag, 10), dynamic.TagName(tag)})
			}
		},
	}
}
