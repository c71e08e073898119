package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/services/eventbus"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	schedule.RegisterValidators(validate, translator, conf.Grid.MeridiemPolicy)

	cli := commandLine{
		conf:       conf,
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	bus := eventbus.New(logger)

	// set up DB & repos
	if conf.Database.InMemory() {
		db := inmemdb.Open()
		cli.usrRepo = inmemdb.NewUserRepository(db)
		cli.schedSvc = schedule.NewService(inmemdb.NewScheduleRepository(db), bus, logger, conf.Grid)
	} else {
		ctx := context.Background()
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			logger.Fatal("creating database", err)
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			logger.Fatal("opening database", err)
		}
		defer db.Close()

		cli.db = db
		cli.usrRepo = sqlxrepos.NewUserRepository(db)
		cli.schedSvc = schedule.NewService(sqlxrepos.NewScheduleRepository(db), bus, logger, conf.Grid)
	}
	defer cli.schedSvc.Close()

	// start CLI
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
