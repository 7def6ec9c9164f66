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
	"time"

	"github.com/uptrace/bun"

	"github.com/tomoncle/teamsearch/model"
	"github.com/tomoncle/teamsearch/search"
)

const (
	memberAlias = "m"
	teamTable   = "teams"
	teamAlias   = "t"
)

// MemberRepository stores members and answers planned searches over the
// member/team join.
type MemberRepository struct {
	Repository[model.Member]
	db bun.IDB
}

var _ search.Engine = (*MemberRepository)(nil)

func NewMemberRepository(db bun.IDB) *MemberRepository {
	return &MemberRepository{Repository: NewRepository[model.Member](db), db: db}
}

// Save inserts a new member or updates an existing one by primary key.
func (r *MemberRepository) Save(ctx context.Context, m *model.Member) error {
	if m.ID == 0 {
		_, err := r.db.NewInsert().Model(m).Exec(ctx)
		return err
	}
	return r.Update(ctx, m)
}

func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*model.Member, error) {
	return r.GetOne(ctx, id)
}

// FindByIDWithTeam loads the member and its team in one joined query.
func (r *MemberRepository) FindByIDWithTeam(ctx context.Context, id int64) (*model.Member, error) {
	m := new(model.Member)
	err := r.db.NewSelect().
		Model(m).
		Relation("Team").
		Where("m.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MemberRepository) FindAll(ctx context.Context) ([]*model.Member, error) {
	return r.GetAll(ctx)
}

func (r *MemberRepository) FindByName(ctx context.Context, name string) ([]*model.Member, error) {
	var members []*model.Member
	err := r.db.NewSelect().
		Model(&members).
		Where("m.name = ?", name).
		Order("m.id ASC").
		Scan(ctx)
	return members, err
}

// FindDtos projects every member onto its name and age.
func (r *MemberRepository) FindDtos(ctx context.Context) ([]*model.MemberDto, error) {
	dtos := make([]*model.MemberDto, 0)
	err := r.db.NewSelect().
		Model((*model.Member)(nil)).
		ColumnExpr("m.name AS username").
		ColumnExpr("m.age AS age").
		Order("m.id ASC").
		Scan(ctx, &dtos)
	return dtos, err
}

// BulkRename renames every member older than ageGreaterThan and returns the
// number of rows changed.
func (r *MemberRepository) BulkRename(ctx context.Context, name string, ageGreaterThan int) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*model.Member)(nil)).
		Set("name = ?", name).
		Set("updated_at = ?", time.Now()).
		Set("last_modified_by = ?", model.AuditorFrom(ctx)).
		Where("age > ?", ageGreaterThan).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkAddAge adds delta to every member's age.
func (r *MemberRepository) BulkAddAge(ctx context.Context, delta int) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*model.Member)(nil)).
		Set("age = age + ?", delta).
		Set("updated_at = ?", time.Now()).
		Set("last_modified_by = ?", model.AuditorFrom(ctx)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkDeleteOlderThan removes members whose age is greater than age.
func (r *MemberRepository) BulkDeleteOlderThan(ctx context.Context, age int) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*model.Member)(nil)).
		Where("age > ?", age).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Fetch runs a planned content query. Engine errors are returned unchanged.
func (r *MemberRepository) Fetch(ctx context.Context, q search.ContentQuery) ([]*model.MemberTeamDto, error) {
	sel := r.db.NewSelect().Model((*model.Member)(nil))
	for _, c := range q.Projection {
		sel = sel.ColumnExpr("?.? AS ?", bun.Ident(fieldAlias(c.Field)), bun.Ident(c.Field.Column()), bun.Ident(c.Alias))
	}
	sel = applyJoin(sel, q.Join)
	sel = applyConditions(sel, q.Conditions)
	if q.OrderBy != "" {
		sel = sel.OrderExpr("?.? ASC", bun.Ident(fieldAlias(q.OrderBy)), bun.Ident(q.OrderBy.Column()))
	}
	if q.Limit > 0 {
		sel = sel.Offset(q.Offset).Limit(q.Limit)
	}

	dtos := make([]*model.MemberTeamDto, 0)
	if err := sel.Scan(ctx, &dtos); err != nil {
		return nil, err
	}
	return dtos, nil
}

// Count runs a planned count query.
func (r *MemberRepository) Count(ctx context.Context, q search.CountQuery) (int, error) {
	sel := r.db.NewSelect().Model((*model.Member)(nil))
	sel = applyJoin(sel, q.Join)
	sel = applyConditions(sel, q.Conditions)
	return sel.Count(ctx)
}

func fieldAlias(f search.Field) string {
	if f.Source() == search.SourceTeam {
		return teamAlias
	}
	return memberAlias
}

func applyJoin(sel *bun.SelectQuery, join *search.Join) *bun.SelectQuery {
	if join == nil {
		return sel
	}
	return sel.
		Join("? ? AS ?", bun.Safe(join.Kind.String()), bun.Ident(teamTable), bun.Ident(teamAlias)).
		JoinOn("?.? = ?.?",
			bun.Ident(fieldAlias(join.Left)), bun.Ident(join.Left.Column()),
			bun.Ident(fieldAlias(join.Right)), bun.Ident(join.Right.Column()))
}

func applyConditions(sel *bun.SelectQuery, conds []search.Condition) *bun.SelectQuery {
	for _, c := range conds {
		sel = sel.Where("?.? "+c.Op.String()+" ?", bun.Ident(fieldAlias(c.Field)), bun.Ident(c.Field.Column()), c.Value)
	}
	return sel
}
