package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alexanderramin/taktplan/internal/audit"
	"github.com/alexanderramin/taktplan/internal/calendar"
	"github.com/alexanderramin/taktplan/internal/cli"
	"github.com/alexanderramin/taktplan/internal/config"
	"github.com/alexanderramin/taktplan/internal/db"
	"github.com/alexanderramin/taktplan/internal/logging"
	"github.com/alexanderramin/taktplan/internal/repository"
	"github.com/alexanderramin/taktplan/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	configFile, err := configFlag(args)
	if err != nil {
		return err
	}
	if configFile == "" {
		configFile = os.Getenv(config.EnvPrefix + "_CONFIG")
	}

	v, err := config.New(configFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger.Debug().Str("db", cfg.Database.Path).Str("config", v.ConfigFileUsed()).Msg("starting")

	cal, err := calendar.FromName(cfg.Calendar.Holidays)
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	projectRepo := repository.NewSQLiteProjectRepo(database)
	structureRepo := repository.NewSQLiteStructureRepo(database)
	templateRepo := repository.NewSQLiteTemplateRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)
	userRepo := repository.NewSQLiteUserRepo(database)
	auditRepo := repository.NewSQLiteAuditRepo(database)

	uow := db.NewSQLiteUnitOfWork(database)

	var recorder audit.Recorder = audit.Nop{}
	if cfg.Audit.Enabled {
		recorder = audit.NewRecorder(audit.Multi{audit.NewStoreSink(auditRepo), audit.NewLogSink(logger)}, logger)
	}

	opts := []service.Option{
		service.WithAudit(recorder),
		service.WithObserver(service.NewLogUseCaseObserver(logger)),
		service.WithLocks(service.NewProjectLocks()),
		service.WithCalendar(cal),
	}

	app := &cli.App{
		Projects:  service.NewProjectService(projectRepo),
		Structure: service.NewStructureService(structureRepo, uow, opts...),
		Templates: service.NewTemplateService(templateRepo, uow, opts...),
		Users:     service.NewUserService(userRepo),
		Schedule:  service.NewScheduleService(uow, opts...),
		Tasks:     service.NewTaskService(taskRepo, uow, opts...),
		Reports:   service.NewReportService(projectRepo, taskRepo, opts...),
		Import:    service.NewImportService(uow, opts...),
		Audit:     service.NewAuditService(auditRepo),

		SkipWeekends: cfg.Schedule.SkipWeekends,
		ConfigFile:   configFile,
	}

	// Piped output defaults to JSON so scripts need no flag.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		app.Output = cli.OutputJSON
	}

	return cli.NewRootCmd(app).Execute()
}

// configFlag picks --config out of args before the command tree exists.
// Everything else is left to cobra.
func configFlag(args []string) (string, error) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v, nil
		}
		if arg == "--config" {
			if i+1 == len(args) {
				return "", fmt.Errorf("flag needs an argument: --config")
			}
			return args[i+1], nil
		}
	}
	return "", nil
}
