// Command oxygen is the CLI front-end for the clip catalog: record,
// list, play, transcribe, rename, delete, import and export voice clips.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"oxygen/internal/audio"
	"oxygen/internal/store"
)

// proAudio is set by the --pro-audio flag; backend() also honours
// OXYGEN_PRO_AUDIO=1.
var proAudio bool

func backend() audio.Backend {
	if proAudio || os.Getenv("OXYGEN_PRO_AUDIO") == "1" {
		return audio.BackendPro
	}
	return audio.BackendDefault
}

func openStore() (*store.Store, error) {
	return store.OpenDefault(store.WithLogger(slog.Default()))
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "oxygen",
		Short:         "A personal voice-journal catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&proAudio, "pro-audio", false,
		"use the audio device with the lowest latency PortAudio reports, instead of the platform default")

	root.AddCommand(
		newRecordCmd(),
		newListCmd(),
		newPlayCmd(),
		newTranscribeCmd(),
		newRenameCmd(),
		newDeleteCmd(),
		newImportCmd(),
		newExportCmd(),
		newExportAllCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "oxygen: %v\n", err)
		os.Exit(1)
	}
}
