package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"oxygen/internal/audio"
	"oxygen/internal/oxerr"
)

func newRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record [name]",
		Short: "Record a clip until interrupted (Ctrl-C)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := time.Now().Local().Format("2006-01-02 15:04:05")
			if len(args) == 1 {
				name = args[0]
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if existing, _ := st.Load(name); existing != nil {
				return fmt.Errorf("a clip named %q already exists: %w", name, oxerr.ErrConflict)
			}

			rh, err := audio.Record(backend(), name)
			if err != nil {
				return fmt.Errorf("start recording: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "recording %q — press Ctrl-C to stop\n", name)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh

			c, err := rh.Stop()
			if err != nil {
				return fmt.Errorf("stop recording: %w", err)
			}
			if err := st.Save(&c); err != nil {
				if errors.Is(err, oxerr.ErrConflict) {
					return fmt.Errorf("a clip named %q already exists: %w", name, err)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "saved %q (%d samples @ %d Hz)\n", c.Name, len(c.Samples), c.SampleRate)
			return nil
		},
	}
}
