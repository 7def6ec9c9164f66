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

package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/teamsearch/model"
	"github.com/tomoncle/teamsearch/types"
)

type memberRow struct {
	id     int64
	name   string
	age    int
	teamID *int64
}

// stubEngine evaluates queries over in-memory rows and counts calls.
type stubEngine struct {
	teams     map[int64]string
	members   []memberRow
	fetches   int
	counts    int
	lastCount *CountQuery
	fetchErr  error
	countErr  error
}

func newStore() *stubEngine {
	x, y := int64(1), int64(2)
	return &stubEngine{
		teams: map[int64]string{1: "groupX", 2: "groupY"},
		members: []memberRow{
			{1, "alice", 30, &x},
			{2, "bob", 40, &x},
			{3, "carol", 50, &y},
			{4, "dave", 60, &y},
		},
	}
}

func (s *stubEngine) withTeamless() *stubEngine {
	s.members = append(s.members, memberRow{5, "erin", 45, nil})
	return s
}

func (s *stubEngine) field(r memberRow, f Field, joined bool) (any, error) {
	if f.Source() == SourceTeam && !joined {
		return nil, fmt.Errorf("field %s read without join", f)
	}
	switch f {
	case FieldMemberID:
		return r.id, nil
	case FieldMemberName:
		return r.name, nil
	case FieldMemberAge:
		return r.age, nil
	case FieldMemberTeamID:
		return r.teamID, nil
	case FieldTeamID:
		if r.teamID == nil {
			return nil, nil
		}
		return *r.teamID, nil
	case FieldTeamName:
		if r.teamID == nil {
			return nil, nil
		}
		return s.teams[*r.teamID], nil
	}
	return nil, fmt.Errorf("unknown field %s", f)
}

func (s *stubEngine) match(r memberRow, conds []Condition, joined bool) (bool, error) {
	for _, c := range conds {
		v, err := s.field(r, c.Field, joined)
		if err != nil {
			return false, err
		}
		if v == nil {
			return false, nil
		}
		switch c.Op {
		case OpEq:
			if v != c.Value {
				return false, nil
			}
		case OpGoe:
			if v.(int) < c.Value.(int) {
				return false, nil
			}
		case OpLoe:
			if v.(int) > c.Value.(int) {
				return false, nil
			}
		}
	}
	return true, nil
}

func (s *stubEngine) Fetch(_ context.Context, q ContentQuery) ([]*model.MemberTeamDto, error) {
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	var out []*model.MemberTeamDto
	skipped := 0
	for _, r := range s.members {
		ok, err := s.match(r, q.Conditions, q.Join != nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
		dto := &model.MemberTeamDto{MemberID: r.id, Username: r.name, Age: r.age}
		if r.teamID != nil {
			id, name := *r.teamID, s.teams[*r.teamID]
			dto.TeamID, dto.TeamName = &id, &name
		}
		out = append(out, dto)
	}
	return out, nil
}

func (s *stubEngine) Count(_ context.Context, q CountQuery) (int, error) {
	s.counts++
	s.lastCount = &q
	if s.countErr != nil {
		return 0, s.countErr
	}
	n := 0
	for _, r := range s.members {
		ok, err := s.match(r, q.Conditions, q.Join != nil)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func names(rows []*model.MemberTeamDto) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Username)
	}
	return out
}

func TestSearchNoFilterReturnsEveryMember(t *testing.T) {
	eng := newStore().withTeamless()
	rows, err := Search(context.Background(), eng, Criteria{})
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob", "carol", "dave", "erin"}, names(rows))
	assert.Equal(t, "groupX", *rows[0].TeamName)
	assert.Nil(t, rows[4].TeamID, "members without a team keep nil team fields")
	assert.Nil(t, rows[4].TeamName)
	assert.Equal(t, 1, eng.fetches)
	assert.Equal(t, 0, eng.counts)
}

func TestSearchAgeRange(t *testing.T) {
	rows, err := Search(context.Background(), newStore(), Criteria{AgeMin: intp(35), AgeMax: intp(55)})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "bob", rows[0].Username)
	assert.Equal(t, 40, rows[0].Age)
	assert.Equal(t, "groupX", *rows[0].TeamName)
	assert.Equal(t, "carol", rows[1].Username)
	assert.Equal(t, 50, rows[1].Age)
	assert.Equal(t, "groupY", *rows[1].TeamName)
}

func TestSearchInvertedRangeIsEmpty(t *testing.T) {
	rows, err := Search(context.Background(), newStore(), Criteria{AgeMin: intp(55), AgeMax: intp(35)})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSearchByTeamCountsWithJoin(t *testing.T) {
	eng := newStore()
	page, err := SearchPageSimple(context.Background(), eng, Criteria{TeamName: "groupY"}, types.NewPageRequest(0, 10))
	require.NoError(t, err)

	assert.Equal(t, []string{"carol", "dave"}, names(page.Items))
	assert.Equal(t, 2, page.Total)
	require.NotNil(t, eng.lastCount)
	assert.NotNil(t, eng.lastCount.Join, "team filter needs the join in the count query")
}

func TestCountSkipsJoinWithoutTeamFilter(t *testing.T) {
	eng := newStore()
	_, err := SearchPageSimple(context.Background(), eng, Criteria{AgeMin: intp(1)}, types.NewPageRequest(0, 1))
	require.NoError(t, err)
	require.NotNil(t, eng.lastCount)
	assert.Nil(t, eng.lastCount.Join)
}

func TestBlankNameMatchesAbsentName(t *testing.T) {
	ctx := context.Background()
	want, err := Search(ctx, newStore().withTeamless(), Criteria{})
	require.NoError(t, err)

	for _, blank := range []string{"", "   "} {
		got, err := Search(ctx, newStore().withTeamless(), Criteria{Name: blank, TeamName: blank})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestAddingFiltersNeverGrowsResult(t *testing.T) {
	ctx := context.Background()
	chain := []Criteria{
		{},
		{AgeMin: intp(35)},
		{AgeMin: intp(35), AgeMax: intp(55)},
		{AgeMin: intp(35), AgeMax: intp(55), TeamName: "groupY"},
		{AgeMin: intp(35), AgeMax: intp(55), TeamName: "groupY", Name: "carol"},
	}
	prev := -1
	for i, c := range chain {
		rows, err := Search(ctx, newStore().withTeamless(), c)
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(rows), prev, "step %d %s", i, c)
		}
		prev = len(rows)
	}
	assert.Equal(t, 1, prev)
}

func TestStrategiesAgree(t *testing.T) {
	ctx := context.Background()
	criteria := []Criteria{
		{},
		{TeamName: "groupX"},
		{TeamName: "groupZ"},
		{AgeMin: intp(35)},
		{AgeMax: intp(45), Name: "alice"},
		{AgeMin: intp(55), AgeMax: intp(35)},
	}
	for _, c := range criteria {
		for offset := 0; offset <= 7; offset++ {
			for limit := 1; limit <= 6; limit++ {
				page := types.NewPageRequest(offset, limit)
				simple, err := SearchPageSimple(ctx, newStore().withTeamless(), c, page)
				require.NoError(t, err)
				optimized, err := SearchPageOptimized(ctx, newStore().withTeamless(), c, page)
				require.NoError(t, err)

				assert.Equal(t, simple.Items, optimized.Items, "%s %s", c, page)
				assert.Equal(t, simple.Total, optimized.Total, "%s %s", c, page)
			}
		}
	}
}

func TestOptimizedSkipsCountOnLastPage(t *testing.T) {
	cases := []struct {
		offset, limit int
	}{
		{0, 5},
		{0, 100},
		{1, 4},
		{3, 2},
		{2, 3},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("offset=%d,limit=%d", tc.offset, tc.limit), func(t *testing.T) {
			eng := newStore()
			page, err := SearchPageOptimized(context.Background(), eng, Criteria{}, types.NewPageRequest(tc.offset, tc.limit))
			require.NoError(t, err)

			assert.Equal(t, 4, page.Total)
			assert.Equal(t, 1, eng.fetches)
			assert.Equal(t, 0, eng.counts, "last page must not issue a count query")
		})
	}
}

func TestOptimizedEmptyStoreSkipsCount(t *testing.T) {
	eng := &stubEngine{teams: map[int64]string{}}
	page, err := SearchPageOptimized(context.Background(), eng, Criteria{}, types.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, eng.counts)
}

func TestOptimizedCountsOnFullPage(t *testing.T) {
	eng := newStore()
	page, err := SearchPageOptimized(context.Background(), eng, Criteria{}, types.NewPageRequest(0, 3))
	require.NoError(t, err)

	assert.Len(t, page.Items, 3)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, eng.counts)
	assert.True(t, page.HasNext())
}

func TestOptimizedCountsOnEmptyPagePastStart(t *testing.T) {
	eng := newStore()
	page, err := SearchPageOptimized(context.Background(), eng, Criteria{}, types.NewPageRequest(10, 3))
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, eng.counts)
}

func TestInvalidPageIssuesNoQuery(t *testing.T) {
	for _, page := range []types.PageRequest{types.NewPageRequest(-1, 3), types.NewPageRequest(0, 0)} {
		eng := newStore()
		_, err := SearchPageSimple(context.Background(), eng, Criteria{}, page)
		assert.ErrorIs(t, err, types.ErrInvalidPageRequest)
		_, err = SearchPageOptimized(context.Background(), eng, Criteria{}, page)
		assert.ErrorIs(t, err, types.ErrInvalidPageRequest)
		assert.Equal(t, 0, eng.fetches+eng.counts)
	}
}

func TestEngineErrorsPropagateUnmodified(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("statement timeout")

	eng := newStore()
	eng.fetchErr = boom
	_, err := Search(ctx, eng, Criteria{})
	assert.True(t, err == boom)
	_, err = SearchPageOptimized(ctx, eng, Criteria{}, types.NewPageRequest(0, 2))
	assert.True(t, err == boom)

	eng = newStore()
	eng.countErr = boom
	_, err = SearchPageSimple(ctx, eng, Criteria{}, types.NewPageRequest(0, 2))
	assert.True(t, err == boom)
	_, err = SearchPageOptimized(ctx, eng, Criteria{}, types.NewPageRequest(0, 2))
	assert.True(t, err == boom)
	assert.Equal(t, 2, eng.counts, "no retry after a failed count")
}

func TestSearchPageDispatch(t *testing.T) {
	ctx := context.Background()
	eng := newStore()
	_, err := SearchPage(ctx, eng, Criteria{}, types.NewPageRequest(0, 10), types.CountSimple)
	require.NoError(t, err)
	assert.Equal(t, 1, eng.counts)

	eng = newStore()
	_, err = SearchPage(ctx, eng, Criteria{}, types.NewPageRequest(0, 10), types.CountOptimized)
	require.NoError(t, err)
	assert.Equal(t, 0, eng.counts)

	_, err = SearchPage(ctx, eng, Criteria{}, types.NewPageRequest(0, 10), types.ParseCountStrategy("nope"))
	assert.Error(t, err)
}
