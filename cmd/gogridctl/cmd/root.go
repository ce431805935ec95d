package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gridhop/gogrid/internal/gogrid/client"
	"github.com/gridhop/gogrid/internal/gogrid/config"
	"github.com/gridhop/gogrid/internal/gogrid/driver"
	"github.com/gridhop/gogrid/internal/gogrid/journal"
	"github.com/gridhop/gogrid/pkg/events"
	"github.com/gridhop/gogrid/pkg/logger"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "gogridctl",
	Short: "Manage GoGrid compute nodes",
	Long: `gogridctl drives the GoGrid cloud API: list and provision nodes,
reboot or destroy them, snapshot images, and inspect datacenters and plans.

Credentials come from GOGRID_API_KEY and GOGRID_API_SECRET, or from a
config.yaml in /etc/gogrid, ~/.gogrid or the current directory.`,
	Version: version,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env bundles everything a command needs against one account.
type env struct {
	cfg     *config.Config
	log     *logger.Logger
	driver  *driver.Driver
	bus     *events.Bus
	journal *journal.Store // nil when disabled
}

// newEnv loads configuration and builds the client stack. Callers must
// close the returned env.
func newEnv() (*env, error) {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:     logger.Level(cfg.Log.Level),
		Format:    logger.Format(cfg.Log.Format),
		Component: "gogridctl",
	})

	apiClient, err := client.New(
		client.Credentials{APIKey: cfg.API.Key, Secret: cfg.API.Secret},
		client.Config{Host: cfg.API.Host, Secure: cfg.API.Secure, Timeout: cfg.API.Timeout},
		log.WithComponent("client"),
	)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus(log.WithComponent("events"))

	d := driver.New(apiClient, driver.Options{
		PollInterval:      cfg.Create.PollInterval,
		AllocationTimeout: cfg.Create.AllocationTimeout,
		Bus:               bus,
	}, log.WithComponent("driver"))

	e := &env{cfg: cfg, log: log, driver: d, bus: bus}

	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			// the journal is auxiliary; a broken one must not block operations
			log.Warn("failed to open operation journal, continuing without it", "error", err)
		} else {
			e.journal = store
		}
	}

	return e, nil
}

func (e *env) close() {
	if e.journal != nil {
		e.journal.Close()
	}
	e.bus.Close()
}

// record journals one finished operation; journal failures are logged, not
// surfaced.
func (e *env) record(ctx context.Context, entry journal.Entry) {
	if e.journal == nil {
		return
	}
	if _, err := e.journal.Record(ctx, entry); err != nil {
		e.log.Warn("failed to journal operation", "operation", entry.Operation, "error", err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// run builds the env, hands it to fn and cleans up before exiting.
func run(fn func(ctx context.Context, e *env) error) {
	e, err := newEnv()
	if err != nil {
		fail(err)
	}

	err = fn(context.Background(), e)
	e.close()
	if err != nil {
		fail(err)
	}
}
