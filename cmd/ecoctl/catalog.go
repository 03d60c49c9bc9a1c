package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eco-rewards/internal/infrastructure/catalogfile"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect reward catalogs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [file]",
		Short: "Print a catalog as YAML (the built-in default when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cat, err := catalogfile.Load(path)
			if err != nil {
				return err
			}
			return catalogfile.Dump(cmd.OutOrStdout(), cat)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a catalog file is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalogfile.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d tiers, %d achievements, %d redemption options\n",
				len(cat.Tiers()), len(cat.Achievements()), len(cat.Options()))
			return nil
		},
	})

	return cmd
}
