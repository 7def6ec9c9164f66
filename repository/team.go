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

package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/tomoncle/teamsearch/model"
)

type TeamRepository struct {
	Repository[model.Team]
	db bun.IDB
}

func NewTeamRepository(db bun.IDB) *TeamRepository {
	return &TeamRepository{Repository: NewRepository[model.Team](db), db: db}
}

func (r *TeamRepository) Save(ctx context.Context, t *model.Team) error {
	if t.ID == 0 {
		_, err := r.db.NewInsert().Model(t).Exec(ctx)
		return err
	}
	return r.Update(ctx, t)
}

func (r *TeamRepository) FindByName(ctx context.Context, name string) (*model.Team, error) {
	t := new(model.Team)
	if err := r.db.NewSelect().Model(t).Where("t.name = ?", name).Scan(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// FindByNames returns the named teams keyed by name. Unknown names are absent.
func (r *TeamRepository) FindByNames(ctx context.Context, names ...string) (map[string]*model.Team, error) {
	found := make(map[string]*model.Team, len(names))
	if len(names) == 0 {
		return found, nil
	}
	var teams []*model.Team
	err := r.db.NewSelect().
		Model(&teams).
		Where("t.name IN (?)", bun.In(names)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		found[t.Name] = t
	}
	return found, nil
}

// UpsertByName inserts teams, refreshing the audit columns of those whose
// name already exists.
func (r *TeamRepository) UpsertByName(ctx context.Context, teams ...*model.Team) error {
	return r.Upsert(ctx, []string{"updated_at", "last_modified_by"}, []string{"name"}, teams...)
}
