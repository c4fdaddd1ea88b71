package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	api "github.com/projuktisheba/tutorhub-api/api/handlers"
	"github.com/projuktisheba/tutorhub-api/internal/cascade"
	"github.com/projuktisheba/tutorhub-api/internal/config"
	"github.com/projuktisheba/tutorhub-api/internal/dbrepo"
	"github.com/projuktisheba/tutorhub-api/internal/driver"
	"github.com/projuktisheba/tutorhub-api/internal/logger"
	"github.com/projuktisheba/tutorhub-api/internal/mailer"
	"github.com/projuktisheba/tutorhub-api/internal/models"
	"github.com/projuktisheba/tutorhub-api/internal/scheduler"
)

// application is the receiver for the various parts of the application
type application struct {
	config    models.Config
	infoLog   *log.Logger
	errorLog  *log.Logger
	errorFile zerolog.Logger
	version   string
	Handlers  *api.HandlerRepo
	DB        *dbrepo.DBRepository
	Server    *http.Server
	cron      *cron.Cron
	ctx       context.Context
}

var app *application

// serve starts the server and listens for requests
func (app *application) serve() error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Port),
		Handler:           app.routes(),
		IdleTimeout:       30 * time.Second,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	app.Server = srv
	app.infoLog.Printf("Starting HTTP Back end server in %s mode on port %d", app.config.Env, app.config.Port)
	app.infoLog.Println(".....................................")
	return srv.ListenAndServe()
}

// ShutdownServer stops the scheduler and gracefully shuts down the server
func (app *application) ShutdownServer() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if app.cron != nil {
		// wait for running jobs
		<-app.cron.Stop().Done()
	}

	app.infoLog.Println("Shutting down the server gracefully...")
	if err := app.Server.Shutdown(ctx); err != nil {
		app.errorLog.Printf("Server forced to shutdown: %s", err)
		return err
	}

	app.infoLog.Println("Server exited gracefully")
	return nil
}

// RunServer is the application entry point
func RunServer(ctx context.Context) error {
	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stdout, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	//get environment variables
	cfg, err := config.Load()
	if err != nil {
		errorLog.Println(err)
		return err
	}

	errorFile, err := logger.Open(cfg.LogDir)
	if err != nil {
		errorLog.Println(err)
		return err
	}
	defer errorFile.Close()
	logger.Tee(errorLog, errorFile.Logger)

	// Connection to database
	var dbConn *pgxpool.Pool
	if cfg.Env == "live" {
		dbConn, err = driver.NewPgxPool(cfg.DB.DSN)
	} else {
		//connect to dev database
		dbConn, err = driver.NewPgxPool(cfg.DB.DEVDSN)
	}
	if err != nil {
		errorLog.Println(err)
		return err
	}
	defer dbConn.Close()
	infoLog.Println("Connected to database")

	if err := driver.Migrate(ctx, dbConn); err != nil {
		errorLog.Println(err)
		return err
	}

	dbRepo := dbrepo.NewDBRepository(dbConn)
	lessons := cascade.New(dbRepo.LessonRepo)
	mail := mailer.New(cfg.Mail, infoLog)

	//Initiate handlers
	app = &application{
		config:    cfg,
		infoLog:   infoLog,
		errorLog:  errorLog,
		errorFile: errorFile.Logger,
		version:   models.APPVersion,
		Handlers:  api.NewHandlerRepo(dbRepo, cfg, lessons, mail, infoLog, errorLog),
		DB:        dbRepo,
		ctx:       ctx,
	}

	if cfg.CronEnabled {
		jobs := scheduler.NewJobs(dbRepo.NotificationRepo, dbRepo.SalaryRepo, dbRepo.LessonRepo, infoLog, errorLog)
		if app.cron, err = scheduler.Start(jobs); err != nil {
			errorLog.Println(err)
			return err
		}
	}

	// Run the server in a separate goroutine so we can wait for shutdown signals
	go func() {
		if err := app.serve(); err != nil && err != http.ErrServerClosed {
			errorLog.Printf("Error starting server: %s", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Wait for shutdown signal
	<-stop

	return app.ShutdownServer()
}

// Stop server from outer module
func StopServer() error {
	return app.ShutdownServer()
}
