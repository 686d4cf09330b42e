package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/mafunzo/storage/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database if needed and apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.CreateIfNotExist(ctx.config()); err != nil {
				return err
			}
			db, err := ctx.database()
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
	}
}
