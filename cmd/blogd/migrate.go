package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"blogd/internal/common/fsutil"
	"blogd/internal/store"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			dbPath, err := fsutil.Resolve(cfg.DBPath)
			if err != nil {
				return err
			}
			st, err := store.Open(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer st.Close()
			v, err := st.SchemaVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", st.Path(), v)
			return nil
		},
	}
}
