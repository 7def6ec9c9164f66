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
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/teamsearch/model"
	"github.com/tomoncle/teamsearch/search"
	"github.com/tomoncle/teamsearch/types"
)

type queryRecorder struct {
	mu      sync.Mutex
	queries []string
}

func (r *queryRecorder) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (r *queryRecorder) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, event.Query)
}

func (r *queryRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = nil
}

func (r *queryRecorder) counts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, q := range r.queries {
		if strings.Contains(q, "count(*)") {
			out = append(out, q)
		}
	}
	return out
}

func newTestDB(t *testing.T) (*bun.DB, *queryRecorder) {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, m := range []interface{}{(*model.Team)(nil), (*model.Member)(nil)} {
		_, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	rec := &queryRecorder{}
	db.AddQueryHook(rec)
	return db, rec
}

// seedGroups stores alice 30 and bob 40 in groupX, carol 50 and dave 60 in groupY.
func seedGroups(t *testing.T, db bun.IDB) {
	t.Helper()
	ctx := context.Background()
	teams := NewTeamRepository(db)
	x, y := model.NewTeam("groupX"), model.NewTeam("groupY")
	require.NoError(t, teams.Save(ctx, x))
	require.NoError(t, teams.Save(ctx, y))

	members := NewMemberRepository(db)
	require.NoError(t, members.Create(ctx,
		model.NewMember("alice", 30, x),
		model.NewMember("bob", 40, x),
		model.NewMember("carol", 50, y),
		model.NewMember("dave", 60, y),
	))
}

func intPtr(v int) *int { return &v }

func usernames(rows []*model.MemberTeamDto) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Username
	}
	return names
}

func TestSearchAgeRange(t *testing.T) {
	db, _ := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)

	rows, err := search.Search(context.Background(), repo, search.Criteria{AgeMin: intPtr(35), AgeMax: intPtr(55)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, 40, rows[0].Age)
	require.NotNil(t, rows[0].TeamName)
	assert.Equal(t, "groupX", *rows[0].TeamName)
	assert.Equal(t, "carol", rows[1].Username)
	assert.Equal(t, "groupY", *rows[1].TeamName)
	assert.Less(t, rows[0].MemberID, rows[1].MemberID)
}

func TestSearchTeamNameCountKeepsJoin(t *testing.T) {
	db, rec := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	rec.reset()

	page, err := search.SearchPageSimple(context.Background(), repo, search.Criteria{TeamName: "groupY"}, types.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "dave"}, usernames(page.Items))
	assert.Equal(t, 2, page.Total)

	counts := rec.counts()
	require.Len(t, counts, 1)
	assert.Contains(t, counts[0], "LEFT JOIN")
}

func TestCountSkipsJoinForMemberFilters(t *testing.T) {
	db, rec := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	rec.reset()

	page, err := search.SearchPageSimple(context.Background(), repo, search.Criteria{Name: "bob", AgeMin: intPtr(10)}, types.NewPageRequest(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	counts := rec.counts()
	require.Len(t, counts, 1)
	assert.NotContains(t, counts[0], "JOIN")
}

func TestOptimizedFullPageCounts(t *testing.T) {
	db, rec := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	rec.reset()

	page, err := search.SearchPageOptimized(context.Background(), repo, search.Criteria{}, types.NewPageRequest(0, 3))
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 4, page.Total)
	assert.Len(t, rec.counts(), 1)
}

func TestOptimizedLastPageSkipsCount(t *testing.T) {
	db, rec := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	rec.reset()

	page, err := search.SearchPageOptimized(context.Background(), repo, search.Criteria{}, types.NewPageRequest(2, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "dave"}, usernames(page.Items))
	assert.Equal(t, 4, page.Total)
	assert.Empty(t, rec.counts())
}

func TestStrategiesAgree(t *testing.T) {
	db, _ := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	for _, c := range []search.Criteria{{}, {TeamName: "groupX"}, {AgeMin: intPtr(45)}} {
		for offset := 0; offset <= 5; offset++ {
			for limit := 1; limit <= 5; limit++ {
				pr := types.NewPageRequest(offset, limit)
				a, err := search.SearchPageSimple(ctx, repo, c, pr)
				require.NoError(t, err)
				b, err := search.SearchPageOptimized(ctx, repo, c, pr)
				require.NoError(t, err)
				assert.Equal(t, a.Total, b.Total, "%s %s", c, pr)
				assert.Equal(t, usernames(a.Items), usernames(b.Items), "%s %s", c, pr)
			}
		}
	}
}

func TestLeftJoinKeepsTeamlessMembers(t *testing.T) {
	db, _ := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, model.NewMember("erin", 45, nil)))

	rows, err := search.Search(ctx, repo, search.Criteria{AgeMin: intPtr(41), AgeMax: intPtr(49)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "erin", rows[0].Username)
	assert.Nil(t, rows[0].TeamID)
	assert.Nil(t, rows[0].TeamName)

	rows, err = search.Search(ctx, repo, search.Criteria{TeamName: "groupX"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, usernames(rows))
}

func TestBulkOperations(t *testing.T) {
	db, _ := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	ctx := model.WithAuditor(context.Background(), "batch")

	n, err := repo.BulkRename(ctx, "senior", 45)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	seniors, err := repo.FindByName(ctx, "senior")
	require.NoError(t, err)
	assert.Len(t, seniors, 2)

	n, err = repo.BulkAddAge(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	dtos, err := repo.FindDtos(ctx)
	require.NoError(t, err)
	require.Len(t, dtos, 4)
	assert.Equal(t, model.MemberDto{Username: "alice", Age: 31}, *dtos[0])

	members, err := repo.FindAll(ctx)
	require.NoError(t, err)
	for _, m := range members {
		assert.Equal(t, "batch", m.LastModifiedBy, m.Name)
	}

	n, err = repo.BulkDeleteOlderThan(ctx, 50)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemberCrud(t *testing.T) {
	db, _ := newTestDB(t)
	seedGroups(t, db)
	repo := NewMemberRepository(db)
	ctx := model.WithAuditor(context.Background(), "tester")

	teams := NewTeamRepository(db)
	x, err := teams.FindByName(ctx, "groupX")
	require.NoError(t, err)

	m := model.NewMember("frank", 22, x)
	require.NoError(t, repo.Save(ctx, m))
	require.NotZero(t, m.ID)
	assert.Equal(t, "tester", m.CreatedBy)

	got, err := repo.FindByIDWithTeam(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Team)
	assert.Equal(t, "groupX", got.Team.Name)

	got.Age = 23
	require.NoError(t, repo.Save(ctx, got))
	got, err = repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 23, got.Age)

	page, err := repo.Page(ctx, types.NewQueryFilter("m.age < ?", 45), types.NewPageRequest(0, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)

	require.NoError(t, repo.Delete(ctx, m.ID))
	_, err = repo.FindByID(ctx, m.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateBatchKeepsZeroAge(t *testing.T) {
	db, rec := newTestDB(t)
	repo := NewMemberRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx,
		model.NewMember("member0", 0, nil),
		model.NewMember("member1", 1, nil),
		model.NewMember("member2", 2, nil),
	))
	var inserts []string
	for _, q := range rec.queries {
		if strings.HasPrefix(q, "INSERT") {
			inserts = append(inserts, q)
		}
	}
	require.Len(t, inserts, 1)
	assert.Contains(t, inserts[0], `"age"`)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	ages := make([]int, len(all))
	for i, m := range all {
		ages[i] = m.Age
	}
	assert.Equal(t, []int{0, 1, 2}, ages)
}
