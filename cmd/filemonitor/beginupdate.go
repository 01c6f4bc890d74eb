package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// beginUpdateSuffix is appended to a manifest's cache file path to derive
// the sidecar file begin-update writes its timestamp to, so that a later,
// separate invocation of update can pick it up.
const beginUpdateSuffix = ".begin-update"

func beginUpdateMain(command *cobra.Command, arguments []string) error {
	loadedState, err := loadMonitor(rootConfiguration.manifest, rootConfiguration.root)
	if err != nil {
		return err
	}

	timestamp, err := loadedState.monitor.BeginUpdate()
	if err != nil {
		return err
	}

	sidecarPath := loadedState.cachePath + beginUpdateSuffix
	if err := os.WriteFile(sidecarPath, []byte(timestamp.Format(time.RFC3339Nano)), 0600); err != nil {
		return errors.Wrap(err, "unable to persist begin-update timestamp")
	}

	fmt.Printf("begin-update recorded at %s\n", timestamp.Format(time.RFC3339Nano))
	return nil
}

var beginUpdateCommand = &cobra.Command{
	Use:          "begin-update",
	Short:        "Mark the start of recomputing a result, so update can detect concurrent modification",
	SilenceUsage: true,
	RunE:         beginUpdateMain,
}
