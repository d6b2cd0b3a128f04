package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/pantry/internal/config"
	"github.com/sakif/pantry/internal/inventory"
	"github.com/sakif/pantry/internal/persistence"
	"github.com/sakif/pantry/internal/service"
)

// cli holds what every subcommand shares: configuration, flag overrides
// and the clock.
type cli struct {
	loadConfig func() (config.Config, error)
	now        func() time.Time

	driver  string
	path    string
	verbose bool
}

// NewRootCmd builds the pantryctl command tree. loadConfig is called once
// per command run, after flags are parsed.
func NewRootCmd(loadConfig func() (config.Config, error), now func() time.Time) *cobra.Command {
	c := &cli{loadConfig: loadConfig, now: now}

	root := &cobra.Command{
		Use:   "pantryctl",
		Short: "Inspect and edit the pantry inventory",
		Long: `pantryctl works directly on the inventory storage used by the pantry server.

COMMANDS:
  list        Show the displayed items
  expiring    Show items that are expiring soon or expired
  add         Add a food item
  delete      Delete a food item (asks for confirmation)
  export      Print the stored record as JSON
  token       Mint an API token for mutating routes

EXAMPLES:
  pantryctl list
  pantryctl --driver file --path ./data expiring
  pantryctl delete cv37m2l8 --yes
  pantryctl token --subject ops --ttl 1h`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&c.driver, "driver", "", "storage driver (memory, file, sqlite, postgres, s3); overrides PANTRY_STORAGE_DRIVER")
	root.PersistentFlags().StringVar(&c.path, "path", "", "sqlite file or file-driver directory")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log storage activity to stderr")

	root.AddCommand(
		c.newListCmd(),
		c.newExpiringCmd(),
		c.newAddCmd(),
		c.newDeleteCmd(),
		c.newExportCmd(),
		c.newTokenCmd(),
	)
	return root
}

func (c *cli) config() (config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return config.Config{}, err
	}
	if c.driver != "" {
		cfg.Storage.Driver = persistence.Driver(c.driver)
	}
	if c.path != "" {
		switch cfg.Storage.Driver {
		case persistence.DriverFile:
			cfg.Storage.FileDir = c.path
		default:
			cfg.Storage.SQLitePath = c.path
		}
	}
	return cfg, nil
}

func (c *cli) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// session is an opened inventory plus the storage behind it.
type session struct {
	cfg     config.Config
	storage *persistence.Store
	store   *inventory.Store
	svc     *service.FoodService
}

// open restores the inventory the same way the server does: from storage,
// or from the first page of the item source when nothing is saved.
func (c *cli) open(ctx context.Context, cmd *cobra.Command, notifier service.Notifier) (*session, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	logger := c.logger(cmd)

	backend, err := persistence.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	storage := persistence.NewStore(backend, persistence.Codec{Compress: cfg.Storage.Compress}, "")

	store := inventory.New(inventory.NewMockSource(c.now),
		inventory.WithPageSize(cfg.PageSize),
		inventory.WithLatency(0),
		inventory.WithClock(c.now),
		inventory.WithLogger(logger),
		inventory.WithStorage(storage),
	)
	found, err := store.Hydrate(ctx)
	if err != nil {
		storage.Close()
		return nil, err
	}
	if !found {
		if err := store.Refetch(ctx); err != nil {
			storage.Close()
			return nil, err
		}
	}

	return &session{
		cfg:     cfg,
		storage: storage,
		store:   store,
		svc:     service.NewFoodService(store, notifier, logger),
	}, nil
}

func (s *session) Close() error { return s.storage.Close() }

// printNotifier reports delete outcomes on the command's output.
type printNotifier struct {
	out io.Writer
}

func (n printNotifier) Success(_ context.Context, message string) {
	fmt.Fprintln(n.out, message)
}

func (n printNotifier) Failure(_ context.Context, message string) {
	fmt.Fprintln(n.out, "error:", message)
}
