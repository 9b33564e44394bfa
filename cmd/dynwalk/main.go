// Command dynwalk walks the dynamic linker's module chain of a process and the
// dynamic section of every loaded module, logging what it finds.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grafana/dynwalk/pkg/build"
	"github.com/grafana/dynwalk/pkg/config"
	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := rootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

func rootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := config.DefaultConfig

	cmd := &cobra.Command{
		Use:   "dynwalk [flags]",
		Short: "Walk the loaded modules of a process and their dynamic sections",
		Long: `dynwalk finds the dynamic linker's r_debug structure in a process,
follows its link_map chain and prints every ElfW(Dyn) entry of every module.
DT_HASH, DT_SYMTAB and DT_STRTAB entries are resolved to the tables they
point at.`,
		Version:      build.Print("dynwalk"),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Apply(cmd.Flags(), &flags)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdout, stderr)
		},
	}
	cmd.SetVersionTemplate("{{ .Version }}\n")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags.RegisterFlags(cmd.Flags())
	cmd.AddCommand(tagsCommand(stdout))
	return cmd
}
