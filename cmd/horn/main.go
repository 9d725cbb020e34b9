package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/horn/pkg/horn/config"
	"github.com/cognicore/horn/pkg/horn/internalerr"
)

// Exit codes
const (
	exitProvable    = 0
	exitNotProvable = 1
	exitMalformed   = 2
)

// exitError carries a process exit code. A nil err means the message was
// already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var errNotProvable = &exitError{code: exitNotProvable}

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", ee.err)
		}
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(exitMalformed)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "horn",
		Short: "Horn-clause theorem prover",
		Long: `horn decides whether a statement follows from a knowledge base of Horn
clauses by depth-bounded backward chaining.

Knowledge bases are JSON, YAML or Prolog-like clause text:

  criminal(X) :- american(X), weapon(Y), sells(X, Y, Z), hostile(Z).
  american(west).`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database for knowledge bases and proof history (overrides store.path)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Trace the search and print bindings")

	root.AddCommand(a.proveCmd())
	root.AddCommand(a.replCmd())
	root.AddCommand(a.kbCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.crosscheckCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.benchCmd())
	return root
}

// setup loads the config and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	comp, err := (&config.Loader{ConfigPath: a.configPath}).Load()
	if err != nil {
		return &exitError{code: exitMalformed, err: err}
	}
	cfg := comp.Config
	if a.dbPath != "" {
		cfg.Store.Path = a.dbPath
	}
	a.cfg = cfg

	level, err := cfg.Log.ZapLevel()
	if err != nil {
		return &exitError{code: exitMalformed, err: err}
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if a.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// classify maps an error to its exit code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	if internalerr.IsMalformed(err) || errors.Is(err, internalerr.ErrInvalidInput) ||
		errors.Is(err, internalerr.ErrInvalidConfig) || errors.Is(err, internalerr.ErrNotFound) {
		return &exitError{code: exitMalformed, err: err}
	}
	return err
}
