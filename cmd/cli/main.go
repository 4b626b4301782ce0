package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/domain"
	"github.com/yourusername/quickdl-go/internal/infrastructure"
	"github.com/yourusername/quickdl-go/pkg/logger"
	"go.uber.org/zap"
)

// cliEnv holds what every command needs once the config is loaded
type cliEnv struct {
	configPath string

	in          io.Reader
	out         io.Writer
	interactive bool
	colorize    bool

	config   *domain.Config
	log      *zap.Logger
	multiLog *logger.MultiLogger
	store    *infrastructure.SQLiteStore
	client   *infrastructure.ServiceClient
}

// reportedError is an error the user has already been shown
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func newRootCmd(env *cliEnv) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quickdl",
		Short:         "quickdl - fetch media from YouTube, TikTok, Instagram, SoundCloud, X and Facebook",
		Long:          `A command-line client for the quickdl extraction service: fetch a file from a supported platform, save it, and rate the platform once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.setup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&env.configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(newFetchCmd(env))
	rootCmd.AddCommand(newRatingCmd(env))
	rootCmd.AddCommand(newAverageCmd(env))
	rootCmd.AddCommand(newHistoryCmd(env))
	rootCmd.AddCommand(newIdentityCmd(env))
	return rootCmd
}

// setup loads the config and opens the local store and service client
func (e *cliEnv) setup() error {
	config, err := app.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	e.config = config

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	e.log = log

	if config.Logging.LogsDir != "" {
		multiLog, err := logger.NewMultiLogger(log, logger.MultiLoggerConfig{
			Level:   config.Logging.Level,
			LogsDir: config.Logging.LogsDir,
		})
		if err != nil {
			log.Warn("Category logs disabled", zap.Error(err))
		} else {
			e.multiLog = multiLog
		}
	}

	store, err := infrastructure.NewSQLiteStore(config.Identity.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	e.store = store

	e.client = infrastructure.NewServiceClient(config.Service, config.Ratings.AverageScale, log)

	if f, ok := e.in.(*os.File); ok {
		e.interactive = isTerminal(f)
	}
	if f, ok := e.out.(*os.File); ok {
		e.colorize = isTerminal(f)
	}
	return nil
}

// close releases what setup opened
func (e *cliEnv) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil && e.log != nil {
			e.log.Warn("Failed to close local store", zap.Error(err))
		}
	}
	if e.multiLog != nil {
		_ = e.multiLog.Close()
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
}

// workflowLogger returns the logger for submit, retrieve and rate events
func (e *cliEnv) workflowLogger() *zap.Logger {
	if e.multiLog != nil {
		return e.multiLog.Workflow()
	}
	return logger.OrNop(e.log)
}

func (e *cliEnv) identityManager() *app.IdentityManager {
	return app.NewIdentityManager(e.store, e.config.Identity, e.config.Server.SecureCookies, e.log)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func main() {
	env := &cliEnv{in: os.Stdin, out: os.Stdout}
	err := newRootCmd(env).Execute()
	env.close()

	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", domain.UserMessage(err, err.Error()))
		}
		os.Exit(1)
	}
}
