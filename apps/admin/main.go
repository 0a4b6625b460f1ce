package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/policy"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/database"
	sqlxdb "github.com/trezcool/academia/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	sqlDB, err := database.Open(context.Background(), conf)
	errAndDie(err)
	defer sqlDB.Close()

	db := sqlxdb.New(sqlDB)
	repo := sqlxdb.NewAccountRepository(db)
	appLogger := logsvc.NewRollbarLogger(logger, conf, "admin")
	appLogger.Enable(!conf.Debug)
	engine := policy.NewEngine(sqlxdb.NewPolicyStore(db), appLogger, nil)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         sqlDB,
		grants:     repo,
		accounts:   account.NewService(db, repo, engine, nil /* replayed signups get no welcome email */, appLogger, nil),
		validate:   validate,
		translator: translator,
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
