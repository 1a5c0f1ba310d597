package main

import (
	"github.com/spf13/cobra"

	"tasklist/internal/ui"
)

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Manage tasks from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, ctx, err := load(cmd, flags)
			if err != nil {
				return err
			}
			st, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			return ui.Run(ctx, st.Tasks(), cfg.Keys)
		},
	}
}
