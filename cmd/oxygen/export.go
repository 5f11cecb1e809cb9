package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"oxygen/internal/exporter"
	"oxygen/internal/oxerr"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <name> <path.wav>",
		Short: "Export one clip to a WAV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]

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

			return exporter.WriteWAV(*c, path)
		},
	}
}

// newExportAllCmd exports the whole catalog into a folder, one WAV file
// per clip named "<clip name>.wav". The folder must be empty or not yet
// exist, so a run never interleaves with someone else's files.
func newExportAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-all <folder>",
		Short: "Export every clip in the catalog to a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := args[0]

			if err := requireEmptyOrAbsent(folder); err != nil {
				return err
			}
			if err := os.MkdirAll(folder, 0o750); err != nil {
				return fmt.Errorf("create %s: %w", folder, err)
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			metas, err := st.List()
			if err != nil {
				return err
			}

			for _, m := range metas {
				c, err := st.LoadByID(m.ID)
				if err != nil {
					return err
				}
				if c == nil {
					continue
				}
				path := filepath.Join(folder, m.Name+".wav")
				if err := exporter.WriteWAV(*c, path); err != nil {
					return fmt.Errorf("export %q: %w", m.Name, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d clips to %s\n", len(metas), folder)
			return nil
		},
	}
}

// requireEmptyOrAbsent rejects a folder that exists and already has
// entries in it, so export-all never mixes its output with unrelated
// files left over from a previous run.
func requireEmptyOrAbsent(folder string) error {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("inspect %s: %w", folder, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("%s is not empty: %w", folder, oxerr.ErrInvalidArgument)
	}
	return nil
}
