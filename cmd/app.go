// Package cmd implements the CLI application to manage a budget.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/budget"
	"github.com/etnz/budget/config"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "server")

	c.Register(&listCmd{}, "records")
	c.Register(&accountCmd{}, "records")
	c.Register(newExpenseCmd(), "records")
	c.Register(newEarningCmd(), "records")
	c.Register(&deleteCmd{}, "records")

	c.Register(&rateCmd{}, "currencies")

	c.Register(&fmtCmd{}, "storage")
	c.Register(&migrateCmd{}, "storage")

	c.Register(&topicCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile      = flag.String("config", "", "Path to the YAML configuration file")
	dataDir         = flag.String("data-dir", "", "Folder holding the budget files (overrides the configuration)")
	database        = flag.String("database", "", "SQL DSN to store the budget in, instead of the data folder (sqlite:<file> or postgres://...)")
	defaultCurrency = flag.String("default-currency", "", "Currency amounts are converted to (overrides the configuration)")
	Verbose         = flag.Bool("v", false, "Verbose logs")
)

// LoadConfig returns the configuration, with the global flags applied.
func LoadConfig() (config.Config, error) {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return cfg, err
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *database != "" {
		cfg.Database = *database
	}
	if *defaultCurrency != "" {
		cfg.DefaultCurrency = *defaultCurrency
	}
	return cfg, cfg.Validate()
}

// NewLogger returns the application logger: human readable with -v, only errors in json otherwise.
func NewLogger() *zap.SugaredLogger {
	var log *zap.Logger
	var err error
	if *Verbose {
		log, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		log, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return log.Sugar()
}

// app is what a command needs to work on the budget.
type app struct {
	cfg     config.Config
	log     *zap.SugaredLogger
	budget  *budget.Budget
	release func() error
}

// openApp loads the configuration and opens the budget.
func openApp() (*app, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log := NewLogger()
	backend, release, err := cfg.Backend(log)
	if err != nil {
		return nil, err
	}
	b, err := budget.Open(backend, cfg.NewRates(log), log)
	if err != nil {
		release()
		return nil, err
	}
	return &app{cfg: cfg, log: log, budget: b, release: release}, nil
}

// close flushes the budget and releases the backend.
func (a *app) close() error {
	defer a.log.Sync()
	err := a.budget.Close()
	if rerr := a.release(); err == nil {
		err = rerr
	}
	return err
}

// openOrFail opens the app, or prints the error.
func openOrFail() (*app, subcommands.ExitStatus) {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open budget: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return a, subcommands.ExitSuccess
}

// closeOrFail closes the app, and turns status into a failure if it could not.
func closeOrFail(a *app, status subcommands.ExitStatus) subcommands.ExitStatus {
	if err := a.close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save budget: %v\n", err)
		return subcommands.ExitFailure
	}
	return status
}

// printMarkdown renders md on the terminal.
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err == nil {
		var out string
		if out, err = r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}
