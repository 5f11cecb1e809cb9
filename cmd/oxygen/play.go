package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oxygen/internal/audio"
	"oxygen/internal/oxerr"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play <name>",
		Short: "Play a clip, blocking until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			c, err := st.Load(name)
			if err != nil {
				return err
			}
			if c == nil {
				return fmt.Errorf("no clip named %q: %w", name, oxerr.ErrNotFound)
			}

			ph, err := audio.Play(*c, backend())
			if err != nil {
				return fmt.Errorf("start playback: %w", err)
			}

			done := make(chan struct{})
			ph.OnDone(func() { close(done) })
			<-done

			return ph.Stop()
		},
	}
}
