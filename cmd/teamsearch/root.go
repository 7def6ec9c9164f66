/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/tomoncle/teamsearch"
	"github.com/tomoncle/teamsearch/config"
	"github.com/tomoncle/teamsearch/database"
)

type app struct {
	configPath string
	envFile    string
	cfg        *config.Config
	registry   *prometheus.Registry
	db         *bun.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "teamsearch",
		Short:         "Search and page team members",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (yaml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		a.migrateCmd(),
		a.seedCmd(),
		a.searchCmd(),
		a.bulkCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	cfg.ApplyLogging()
	a.cfg = cfg
	return nil
}

// connect opens the global database. Migrations run when the config asks for
// them on startup or when force is set.
func (a *app) connect(ctx context.Context, force bool) (*bun.DB, error) {
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	dbCfg := a.cfg.DatabaseConfig()
	dbCfg.ConnectionConfig.Registerer = a.registry
	db, err := database.InitDatabaseWithOptions(ctx, dbCfg, force || dbCfg.MigrateConfig.EnableMigrateOnStartup)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) service(ctx context.Context) (teamsearch.MemberService, error) {
	db, err := a.connect(ctx, false)
	if err != nil {
		return nil, err
	}
	return teamsearch.NewMemberService(db), nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	a.db = nil
	return database.CloseDB()
}
