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
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/tomoncle/teamsearch"
	"github.com/tomoncle/teamsearch/api"
	"github.com/tomoncle/teamsearch/database"
	"github.com/tomoncle/teamsearch/model"
	"github.com/tomoncle/teamsearch/search"
	"github.com/tomoncle/teamsearch/types"
)

func (a *app) migrateCmd() *cobra.Command {
	var rollback string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.connect(ctx, rollback == "")
			if err != nil {
				return err
			}
			mm := database.NewMigrationManager(db, nil, a.cfg.DatabaseConfig().MigrateConfig)
			if rollback != "" {
				if err := mm.RollbackMigration(ctx, rollback); err != nil {
					return err
				}
			}
			applied, err := mm.GetAppliedMigrations(ctx)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"version", "name", "applied at"})
			for _, m := range applied {
				table.Append([]string{m.Version, m.Name, m.AppliedAt.Format(time.RFC3339)})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&rollback, "rollback", "", "revert the given migration version")
	return cmd
}

func (a *app) seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load teams and members from a YAML fixture or the default data set",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = a.cfg.Seed.File
			}
			var fixture *teamsearch.Fixture
			if file != "" {
				f, err := teamsearch.LoadFixture(file)
				if err != nil {
					return err
				}
				fixture = f
			}
			ctx := model.WithAuditor(cmd.Context(), "seed")
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			res, err := svc.Seed(ctx, fixture)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d teams, %d members\n", res.Teams, res.Members)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file, defaults to seed.file")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var (
		criteria       search.Criteria
		ageMin, ageMax int
		offset, limit  int
		strategy       string
		all            bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search members by name, team and age range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("age-min") {
				criteria.AgeMin = &ageMin
			}
			if cmd.Flags().Changed("age-max") {
				criteria.AgeMax = &ageMax
			}
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}

			if all {
				rows, err := svc.Search(ctx, criteria)
				if err != nil {
					return err
				}
				renderMembers(cmd, rows)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rows: %d\n", len(rows))
				return nil
			}

			st := a.cfg.CountStrategy()
			if strategy != "" {
				st = types.ParseCountStrategy(strategy)
			}
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.Search.DefaultLimit
			}
			page, err := svc.SearchPage(ctx, criteria, types.NewPageRequest(offset, limit), st)
			if err != nil {
				return err
			}
			renderMembers(cmd, page.Items)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "page: %d/%d total: %d strategy: %s\n",
				page.Number()+1, page.TotalPages(), page.Total, st.Name())
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&criteria.Name, "name", "", "exact member name")
	f.StringVar(&criteria.TeamName, "team-name", "", "exact team name")
	f.IntVar(&ageMin, "age-min", 0, "minimum age, inclusive")
	f.IntVar(&ageMax, "age-max", 0, "maximum age, inclusive")
	f.IntVar(&offset, "offset", 0, "rows to skip")
	f.IntVar(&limit, "limit", 0, "page size, defaults to search.default_limit")
	f.StringVar(&strategy, "strategy", "", "count strategy: simple or optimized")
	f.BoolVar(&all, "all", false, "return every match without paging")
	return cmd
}

func renderMembers(cmd *cobra.Command, rows []*model.MemberTeamDto) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"id", "username", "age", "team id", "team"})
	for _, r := range rows {
		teamID, teamName := "", ""
		if r.TeamID != nil {
			teamID = strconv.FormatInt(*r.TeamID, 10)
		}
		if r.TeamName != nil {
			teamName = *r.TeamName
		}
		table.Append([]string{strconv.FormatInt(r.MemberID, 10), r.Username, strconv.Itoa(r.Age), teamID, teamName})
	}
	table.Render()
}

func (a *app) bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Bulk member updates",
	}

	var name string
	var renameAge int
	rename := &cobra.Command{
		Use:   "rename",
		Short: "Rename members older than --age-gt",
		RunE: a.bulkRun(func(ctx context.Context, svc teamsearch.MemberService) (int64, error) {
			return svc.BulkRename(ctx, name, renameAge)
		}),
	}
	rename.Flags().StringVar(&name, "name", "", "new name")
	rename.Flags().IntVar(&renameAge, "age-gt", 0, "rename members older than this")
	_ = rename.MarkFlagRequired("name")

	var delta int
	addAge := &cobra.Command{
		Use:   "add-age",
		Short: "Add --delta to every member's age",
		RunE: a.bulkRun(func(ctx context.Context, svc teamsearch.MemberService) (int64, error) {
			return svc.BulkAddAge(ctx, delta)
		}),
	}
	addAge.Flags().IntVar(&delta, "delta", 1, "years to add")

	var deleteAge int
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete members older than --age-gt",
		RunE: a.bulkRun(func(ctx context.Context, svc teamsearch.MemberService) (int64, error) {
			return svc.BulkDeleteOlderThan(ctx, deleteAge)
		}),
	}
	del.Flags().IntVar(&deleteAge, "age-gt", 0, "delete members older than this")
	_ = del.MarkFlagRequired("age-gt")

	cmd.AddCommand(rename, addAge, del)
	return cmd
}

func (a *app) bulkRun(op func(context.Context, teamsearch.MemberService) (int64, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := a.service(cmd.Context())
		if err != nil {
			return err
		}
		n, err := op(cmd.Context(), svc)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
		return nil
	}
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			router := api.NewRouter(svc, api.Options{
				DefaultLimit: a.cfg.Search.DefaultLimit,
				MaxLimit:     a.cfg.Search.MaxLimit,
				Gatherer:     a.registry,
			})
			srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", addr)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to server.addr")
	return cmd
}
