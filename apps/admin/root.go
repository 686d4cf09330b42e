package main

import (
	"database/sql"

	"github.com/spf13/cobra"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/user"
	emailsvc "github.com/trezcool/mafunzo/services/email"
	"github.com/trezcool/mafunzo/storage/database"
	sqlxrepos "github.com/trezcool/mafunzo/storage/database/sqlx"
)

// commandContext lazily wires config, DB and services so that
// commands not needing them (help, completion) stay cheap.
type commandContext struct {
	conf   *core.Config
	db     *sql.DB
	usrSvc *user.Service
}

func (ctx *commandContext) config() *core.Config {
	if ctx.conf == nil {
		ctx.conf = core.NewConfig()
	}
	return ctx.conf
}

func (ctx *commandContext) database() (*sql.DB, error) {
	if ctx.db == nil {
		db, err := database.Open(ctx.config())
		if err != nil {
			return nil, err
		}
		ctx.db = db
	}
	return ctx.db, nil
}

func (ctx *commandContext) userService() (*user.Service, error) {
	if ctx.usrSvc == nil {
		db, err := ctx.database()
		if err != nil {
			return nil, err
		}
		conf := ctx.config()
		ctx.usrSvc = user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf), conf)
	}
	return ctx.usrSvc, nil
}

func (ctx *commandContext) close() {
	if ctx.db != nil {
		_ = ctx.db.Close()
	}
}

func newRootCommand() *cobra.Command {
	ctx := new(commandContext)

	rootCmd := &cobra.Command{
		Use:           "mafunzo-admin",
		Short:         "Mafunzo administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
	}

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newAddUserCommand(ctx))
	rootCmd.AddCommand(newListUsersCommand(ctx))
	rootCmd.AddCommand(newResetPasswordCommand(ctx))

	return rootCmd
}
