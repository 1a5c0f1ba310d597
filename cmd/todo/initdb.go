package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitDBCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create or migrate the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ctx, err := load(cmd, flags)
			if err != nil {
				return err
			}
			// Open already applies the schema.
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized the database at %s\n", st.Path())
			return nil
		},
	}
}
