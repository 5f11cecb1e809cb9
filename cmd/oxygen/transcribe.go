package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"oxygen/internal/oxerr"
	"oxygen/internal/transcribe"
)

func newTranscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <name>",
		Short: "Transcribe a clip and print t0 t1 text rows",
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

			tr := transcribe.New(loadSpeechModel, nil)
			defer tr.Close()

			result := <-tr.Submit(*c)
			if result.Err != nil {
				return fmt.Errorf("transcribe: %w", result.Err)
			}

			out := cmd.OutOrStdout()
			for _, seg := range result.Segments {
				fmt.Fprintf(out, "%.2f %.2f %s\n", seg.T0, seg.T1, seg.Text)
			}
			return nil
		},
	}
}
