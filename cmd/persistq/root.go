/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/suparena/persist"
	"github.com/suparena/persist/config"
	"github.com/suparena/persist/logger"
	"github.com/suparena/persist/registry"
)

// app is the state shared by the query commands once the configuration is loaded.
type app struct {
	out io.Writer

	configPath string
	envFile    string
	logLevel   string

	registry   *registry.Registry
	dispatcher *persist.Dispatcher
	backends   *config.Backends
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "persistq",
		Short: "Query entities through the persist dispatcher",
		Long: `persistq reads entities declared in a persist configuration file.
Each entity is served by its configured backend (dynamodb, sqlite or memory);
records are written to stdout as JSON lines.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "persist.yaml", "entity configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "dotenv file with backend credentials")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newVersionCmd(a))
	root.AddCommand(newEntitiesCmd(a))
	root.AddCommand(newScanCmd(a, false))
	root.AddCommand(newScanCmd(a, true))
	root.AddCommand(newGetCmd(a))
	return root
}

// setup loads the configuration, initializes logging and registers every
// entity. It is called by commands that need the dispatcher.
func (a *app) setup(ctx context.Context) error {
	f, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		f.Logging.Level = a.logLevel
	}
	log, err := logger.Init(f.Logging)
	if err != nil {
		return err
	}

	reg := registry.New()
	backends, err := f.Build(ctx, reg, config.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to build backends: %w", err)
	}

	a.registry = reg
	a.backends = backends
	a.dispatcher = persist.NewDispatcher(persist.WithResolver(reg), persist.WithLogger(log))
	return nil
}

func (a *app) teardown() {
	if a.backends != nil {
		_ = a.backends.Close()
	}
	_ = logger.Sync()
}
