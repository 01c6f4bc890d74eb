package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/monocle-build/filemonitor/pkg/buildinfo"
)

func rootMain(command *cobra.Command, arguments []string) {
	if rootConfiguration.version {
		fmt.Println(buildinfo.Version)
		return
	}
	command.Help()
}

var rootCommand = &cobra.Command{
	Use:   "filemonitor",
	Short: "filemonitor tracks a declared set of filesystem paths to decide whether a cached result can be reused",
	Run:   rootMain,
}

var rootConfiguration struct {
	// manifest is the path to the YAML manifest declaring monitor paths and
	// cache settings.
	manifest string
	// root is the filesystem root that relative declared paths are
	// resolved against.
	root string
	// version, if true, causes the version to be printed and nothing else.
	version bool
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&rootConfiguration.manifest, "manifest", "filemonitor.yaml", "path to the monitor manifest")
	flags.StringVar(&rootConfiguration.root, "root", ".", "filesystem root that relative declared paths resolve against")

	rootCommand.Flags().BoolVarP(&rootConfiguration.version, "version", "v", false, "show version information")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		checkCommand,
		updateCommand,
		beginUpdateCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		fatal(err)
	}
}
