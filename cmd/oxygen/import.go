package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"oxygen/internal/importer"
	"oxygen/internal/oxerr"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <path> [name]",
		Short: "Import an audio file as a new clip (WAV decodes; other containers are detected but rejected)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			name := stem(path)
			if len(args) == 2 {
				name = args[1]
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			existing, err := st.Load(name)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("clip named %q already exists: %w", name, oxerr.ErrConflict)
			}

			c, err := importer.Import(path)
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			c.Name = name

			if err := st.Save(&c); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %q (%d samples)\n", c.Name, len(c.Samples))
			return nil
		},
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
