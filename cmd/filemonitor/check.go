package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/monocle-build/filemonitor/pkg/filemonitor"
)

func checkMain(command *cobra.Command, arguments []string) error {
	correlation := uuid.New().String()

	loadedState, err := loadMonitor(rootConfiguration.manifest, rootConfiguration.root)
	if err != nil {
		return err
	}

	result, err := loadedState.monitor.Check(checkConfiguration.key, loadedState.paths)
	if err != nil {
		return err
	}

	fmt.Printf("[%s] checked %d declared path(s)\n", correlation, len(loadedState.paths))

	switch result.Reason {
	case filemonitor.ChangeReasonNoCache:
		fmt.Println("changed: no cache file found")
	case filemonitor.ChangeReasonUnreadableCache:
		fmt.Println("changed: cache file is unreadable")
	case filemonitor.ChangeReasonKeyChanged:
		fmt.Println("changed: cache key no longer matches")
	case filemonitor.ChangeReasonPathChanged:
		fmt.Println("changed: a monitored path no longer matches its cached state")
	case filemonitor.ChangeReasonNone:
		fmt.Println("unchanged: cached result may be reused")
		if cached, err := readCachedResult(loadedState.cachePath); err == nil {
			fmt.Printf("cached result: %s\n", cached)
		} else {
			warning(fmt.Sprintf("unable to read cached result: %s", err.Error()))
		}
		if info, err := os.Stat(loadedState.cachePath); err == nil {
			fmt.Printf("cache file size: %s\n", humanize.Bytes(uint64(info.Size())))
		}
	}

	if result.Changed {
		// A non-zero exit lets this subcommand be used directly in a shell
		// conditional (e.g. `filemonitor check ... || recompute-and-update`)
		// without printing a redundant error: the reason has already been
		// reported above.
		os.Exit(1)
	}
	return nil
}

// readCachedResult decodes the previously cached result, used only to print
// it for a human running the CLI directly; a real caller wrapping this
// library would call Monitor.Check and decode its own result type.
func readCachedResult(cachePath string) (string, error) {
	cached, err := filemonitor.ReadCacheFile(cachePath)
	if err != nil {
		return "", err
	}
	var result string
	if err := cached.DecodeResult(&result); err != nil {
		return "", err
	}
	return result, nil
}

var checkConfiguration struct {
	key string
}

var checkCommand = &cobra.Command{
	Use:          "check",
	Short:        "Check whether the cached result for a key is still valid",
	SilenceUsage: true,
	RunE:         checkMain,
}

func init() {
	flags := checkCommand.Flags()
	flags.StringVar(&checkConfiguration.key, "key", "", "cache key to check against")
}
