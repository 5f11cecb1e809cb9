package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every clip in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			metas, err := st.List()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "id\tname\tdate")
			for _, m := range metas {
				fmt.Fprintf(w, "%d\t%s\t%s\n", m.ID, m.Name, m.Date.Local().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}
}
