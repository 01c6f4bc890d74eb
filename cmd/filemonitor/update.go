package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func updateMain(command *cobra.Command, arguments []string) error {
	correlation := uuid.New().String()

	loadedState, err := loadMonitor(rootConfiguration.manifest, rootConfiguration.root)
	if err != nil {
		return err
	}

	sidecarPath := loadedState.cachePath + beginUpdateSuffix
	if data, err := os.ReadFile(sidecarPath); err == nil {
		if cutoff, parseErr := time.Parse(time.RFC3339Nano, string(data)); parseErr == nil {
			loadedState.monitor.SetBeginUpdate(cutoff)
		} else {
			warning(fmt.Sprintf("ignoring unreadable begin-update timestamp: %s", parseErr.Error()))
		}
		os.Remove(sidecarPath)
	}

	if err := loadedState.monitor.Update(updateConfiguration.key, updateConfiguration.result, loadedState.paths); err != nil {
		return err
	}

	fmt.Printf("[%s] recorded result for %d declared path(s)\n", correlation, len(loadedState.paths))
	return nil
}

var updateConfiguration struct {
	key    string
	result string
}

var updateCommand = &cobra.Command{
	Use:          "update",
	Short:        "Recompute and persist the monitor's cache for a key and result",
	SilenceUsage: true,
	RunE:         updateMain,
}

func init() {
	flags := updateCommand.Flags()
	flags.StringVar(&updateConfiguration.key, "key", "", "cache key to record")
	flags.StringVar(&updateConfiguration.result, "result", "", "result value to record alongside the key")
}
