package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func levelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List playable levels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(catalog.Levels)
			}
			fmt.Print(renderer().Levels(catalog))
			return nil
		},
	}
}
