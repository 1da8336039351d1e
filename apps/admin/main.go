package main

import (
	"log"
	"os"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/audit"
	"github.com/trezcool/pathwise/core/auth"
	"github.com/trezcool/pathwise/storage/database"
	inmemdb "github.com/trezcool/pathwise/storage/database/inmem"
	sqlxrepos "github.com/trezcool/pathwise/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	cli := commandLine{
		inspector: auth.NewInspector(conf.Auth.JWTSecret),
		out:       os.Stdout,
	}

	// set up DB
	if conf.Database.Engine != "" {
		errAndDie(database.CreateIfNotExist(conf))
		db, err := database.Open(conf)
		errAndDie(err)
		defer func() { _ = db.Close() }()

		cli.db = db.DB
		cli.auditSvc = audit.NewService(sqlxrepos.NewAuditRepository(db))
	} else {
		logger.Println("warning: database.engine is not configured, the audit trail is empty")
		cli.auditSvc = audit.NewService(inmemdb.NewAuditRepository())
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
