package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/assets"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/policy"
	"github.com/trezcool/academia/core/review"
	emailsvc "github.com/trezcool/academia/services/email"
	logsvc "github.com/trezcool/academia/services/logger"
	metricsvc "github.com/trezcool/academia/services/metrics"
	"github.com/trezcool/academia/storage/database"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
	sqlxdb "github.com/trezcool/academia/storage/database/sqlx"
)

// stores bundles the storage side of the services.
type stores struct {
	tx          core.Transactor
	policy      policy.Store
	accounts    account.Repository
	courses     course.Repository
	enrollments enrollment.Repository
	reviews     review.Repository
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
		"api",
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
		"db",
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	st, err := setUpStores(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = st.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	metrics := metricsvc.NewMetrics()
	engine := policy.NewEngine(st.policy, logger, metrics)

	accSvc := account.NewService(st.tx, st.accounts, engine, mailSvc, logger, metrics)
	crsSvc := course.NewService(st.tx, st.courses, engine, logger)
	enrSvc := enrollment.NewService(st.tx, st.enrollments, engine)
	revSvc := review.NewService(st.tx, st.reviews, engine)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	core.ParseEmailTemplates(assets.FS, conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Validate:    validate,
			Translator:  translator,
			Metrics:     metrics,
			Accounts:    accSvc,
			Courses:     crsSvc,
			Enrollments: enrSvc,
			Reviews:     revSvc,
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

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpStores opens the storage selected by the DB engine setting: "postgres" (default) or "inmem".
func setUpStores(ctx context.Context, conf *core.Config) (*stores, error) {
	if conf.Database.Engine == "inmem" {
		db := inmemdb.New()
		return &stores{
			tx:          db,
			policy:      inmemdb.NewPolicyStore(db),
			accounts:    inmemdb.NewAccountRepository(db),
			courses:     inmemdb.NewCourseRepository(db),
			enrollments: inmemdb.NewEnrollmentRepository(db),
			reviews:     inmemdb.NewReviewRepository(db),
			close:       func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}
	sqlDB, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(sqlDB, "up"); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db := sqlxdb.New(sqlDB)
	return &stores{
		tx:          db,
		policy:      sqlxdb.NewPolicyStore(db),
		accounts:    sqlxdb.NewAccountRepository(db),
		courses:     sqlxdb.NewCourseRepository(db),
		enrollments: sqlxdb.NewEnrollmentRepository(db),
		reviews:     sqlxdb.NewReviewRepository(db),
		close:       sqlDB.Close,
	}, nil
}
