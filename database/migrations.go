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

package database

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// MigrationManager applies versioned schema migrations for a set of models.
type MigrationManager struct {
	db     *bun.DB
	logger Logger
	config MigrateConfig
	models []SQLModel
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name,notnull"`
	AppliedAt   time.Time `bun:"applied_at,notnull"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// NewMigrationManager migrates the models of the default registry.
func NewMigrationManager(db *bun.DB, logger Logger, config MigrateConfig) *MigrationManager {
	return NewMigrationManagerFor(db, logger, config, GetRegisteredModels())
}

// NewMigrationManagerFor migrates an explicit model list, ordered by priority.
func NewMigrationManagerFor(db *bun.DB, logger Logger, config MigrateConfig, models []SQLModel) *MigrationManager {
	sorted := make([]SQLModel, len(models))
	copy(sorted, models)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{db: db, logger: logger, config: config, models: sorted}
}

// RunMigrations creates the migration tracking table if needed and executes
// every pending migration in ascending version order.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, migration := range mm.Migrations() {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.logger.Info("Database migrations completed!")
	return nil
}

// Migrations lists the known migrations in version order.
func (mm *MigrationManager) Migrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "0001",
			Name:        "create_tables",
			Description: "Create tables for registered models",
			Up:          mm.createTables,
			Down:        mm.dropTables,
		},
	}
	if mm.config.EnableIndexes {
		migrations = append(migrations, MigrationItem{
			Version:     "0002",
			Name:        "member_indexes",
			Description: "Create secondary indexes for registered models",
			Up:          mm.createIndexes,
			Down:        mm.dropIndexes,
		})
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

// RollbackMigration reverts an applied migration and removes its record.
func (mm *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	var target *MigrationItem
	for _, m := range mm.Migrations() {
		if m.Version == version {
			m := m
			target = &m
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown migration version: %s", version)
	}
	if target.Down == nil {
		return fmt.Errorf("migration %s cannot be rolled back", version)
	}

	err := mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*Migration)(nil)).
			Where("version = ?", version).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("migration %s is not applied", version)
		}
		return target.Down(ctx, tx)
	})
	if err != nil {
		return err
	}
	mm.logger.Info("Migration rolled back", "version", version, "name", target.Name)
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

func (mm *MigrationManager) createTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.models {
		q := db.NewCreateTable().
			Model(model.Instance()).
			IfNotExists()
		if fkm, ok := model.(ForeignKeyModel); ok && mm.config.EnableForeignKey {
			for _, fk := range fkm.ForeignKeys() {
				q = q.ForeignKey(fk)
			}
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %T: %w", model.Instance(), err)
		}
	}
	return nil
}

func (mm *MigrationManager) dropTables(ctx context.Context, db bun.IDB) error {
	for i := len(mm.models) - 1; i >= 0; i-- {
		instance := mm.models[i].Instance()
		if _, err := db.NewDropTable().Model(instance).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table %T: %w", instance, err)
		}
	}
	return nil
}

func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.models {
		im, ok := model.(IndexedModel)
		if !ok {
			continue
		}
		for _, idx := range im.Indexes() {
			_, err := db.NewCreateIndex().
				Model(model.Instance()).
				Index(idx.Name).
				Column(idx.Columns...).
				Exec(ctx)
			if err != nil {
				// PostgreSQL reports an existing index as a duplicate relation.
				if is, kind := IsSqlError(err); is && (kind == ExistIndexErr || kind == ExistTableErr) {
					mm.logger.Debug("Index already exists", "index", idx.Name)
					continue
				}
				return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
			}
		}
	}
	return nil
}

func (mm *MigrationManager) dropIndexes(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.models {
		im, ok := model.(IndexedModel)
		if !ok {
			continue
		}
		for _, idx := range im.Indexes() {
			_, err := db.NewDropIndex().
				Model(model.Instance()).
				Index(idx.Name).
				IfExists().
				Exec(ctx)
			if err != nil {
				if is, kind := IsSqlError(err); is && kind == NoIndexErr {
					continue
				}
				return fmt.Errorf("failed to drop index %s: %w", idx.Name, err)
			}
		}
	}
	return nil
}
