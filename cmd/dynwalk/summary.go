package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/grafana/dynwalk/pkg/walker"
	"github.com/olekukonko/tablewriter"
)

const mainExecutable = "[main]"

// printSummary writes one row per walked module followed by the outcome of
// the symbol lookup.
func printSummary(w io.Writer, res *walker.Result) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Path", "Bias", "Dynamic", "Entries", "Mapping", "Build ID"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	for _, m := range res.Modules {
		path := m.Module.Path
		if path == "" {
			path = mainExecutable
		}
		entries := strconv.Itoa(len(m.Entries))
		if m.Incomplete {
			entries += "+"
		}
		var mapping, buildID string
		if m.Mapping != nil {
			mapping = m.Mapping.Pathname
		}
		if m.Object != nil {
			buildID = m.Object.BuildID.String()
		}
		table.Append([]string{
			strconv.Itoa(m.Index),
			path,
			fmt.Sprintf("%#x", m.Module.Bias),
			fmt.Sprintf("%#x", m.Module.Dynamic),
			entries,
			mapping,
			buildID,
		})
	}
	table.SetFooter([]string{"", "", "", "total", strconv.Itoa(res.Entries()), "", ""})
	table.Render()

	if res.Symbol.Found {
		_, err := color.New(color.FgGreen).Fprintf(w, "%s found at %#x\n", res.Symbol.Name, res.Symbol.Addr)
		return err
	}
	_, err := color.New(color.FgYellow).Fprintf(w, "%s not resolved\n", res.Symbol.Name)
	return err
}
