package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/notification"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	emailsvc "github.com/trezcool/ratiba/services/email"
	"github.com/trezcool/ratiba/services/eventbus"
	"github.com/trezcool/ratiba/services/jobs"
	logsvc "github.com/trezcool/ratiba/services/logger"
	"github.com/trezcool/ratiba/storage/database"
	inmemdb "github.com/trezcool/ratiba/storage/database/inmem"
	sqlxrepos "github.com/trezcool/ratiba/storage/database/sqlx"
)

type repositories struct {
	user         user.Repository
	schedule     schedule.Repository
	notification notification.Repository
	close        func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB & repos
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	bus := eventbus.New(logger)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(repos.user, mailSvc, conf)
	schedSvc := schedule.NewService(repos.schedule, bus, logger, conf.Grid)
	defer schedSvc.Close()
	notifSvc := notification.NewService(repos.notification, usrSvc, schedSvc, mailSvc, bus, logger)
	defer notifSvc.Close()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	schedule.RegisterValidators(validate, translator, conf.Grid.MeridiemPolicy)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start Jobs

	runner, err := jobs.NewRunner(conf.Jobs, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up jobs: %v", err), err)
	}
	if err = runner.ScheduleDigest(conf.Jobs.DigestCron, notifSvc); err != nil {
		logger.Fatal(fmt.Sprintf("setting up jobs: %v", err), err)
	}
	runner.Start()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			Bus:             bus,
			UserSvc:         usrSvc,
			ScheduleSvc:     schedSvc,
			NotificationSvc: notifSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests and jobs a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = runner.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop jobs gracefully: %v", err), err)
		}

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpRepositories(conf *core.Config) (repositories, error) {
	if conf.Database.InMemory() {
		db := inmemdb.Open()
		return repositories{
			user:         inmemdb.NewUserRepository(db),
			schedule:     inmemdb.NewScheduleRepository(db),
			notification: inmemdb.NewNotificationRepository(db),
			close:        func() error { return nil },
		}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		user:         sqlxrepos.NewUserRepository(db),
		schedule:     sqlxrepos.NewScheduleRepository(db),
		notification: sqlxrepos.NewNotificationRepository(db),
		close:        db.Close,
	}, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx := context.Background()
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
