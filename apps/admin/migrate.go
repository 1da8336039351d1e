package main

import (
	"github.com/pkg/errors"
	"github.com/trezcool/goose"

	"github.com/trezcool/pathwise/storage/database"
)

var gooseRunFunc = goose.RunFS // mockable

var errNoDatabase = errors.New("database.engine is not configured")

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, database.Migrations, database.MigrationsDir, arguments...)
}
