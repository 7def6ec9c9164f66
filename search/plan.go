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

// FieldMemberTeamID is the member's foreign key to its team.
const FieldMemberTeamID Field = "member.team_id"

// JoinKind is the join type between the member and team records.
type JoinKind int

const (
	JoinLeftOuter JoinKind = iota
)

func (k JoinKind) String() string {
	if k == JoinLeftOuter {
		return "LEFT JOIN"
	}
	return "JOIN"
}

// Join relates the member record to its team record.
type Join struct {
	Kind  JoinKind
	Left  Field
	Right Field
}

// MemberTeamJoin keeps members without a team; their team fields stay nil.
var MemberTeamJoin = Join{Kind: JoinLeftOuter, Left: FieldMemberTeamID, Right: FieldTeamID}

// Column is one projected field and the name it is exposed under.
type Column struct {
	Field Field
	Alias string
}

// MemberTeamProjection maps the joined record onto model.MemberTeamDto.
var MemberTeamProjection = []Column{
	{Field: FieldMemberID, Alias: "member_id"},
	{Field: FieldMemberName, Alias: "username"},
	{Field: FieldMemberAge, Alias: "age"},
	{Field: FieldTeamID, Alias: "team_id"},
	{Field: FieldTeamName, Alias: "team_name"},
}

// ContentQuery asks the engine for projected rows. Limit 0 means unbounded.
type ContentQuery struct {
	Conditions []Condition
	Join       *Join
	Projection []Column
	OrderBy    Field
	Offset     int
	Limit      int
}

// CountQuery asks the engine how many members match. Join is nil when no
// condition reads the team record.
type CountQuery struct {
	Conditions []Condition
	Join       *Join
}

// QueryPlan is the composed filter, join and projection for one search call.
type QueryPlan struct {
	Conditions []Condition
	Join       Join
	Projection []Column
}

// Plan composes the criteria and attaches the member/team join and projection.
func Plan(c Criteria) QueryPlan {
	return QueryPlan{
		Conditions: Compose(c),
		Join:       MemberTeamJoin,
		Projection: MemberTeamProjection,
	}
}

// Content returns the content query for a window ordered by member id.
func (p QueryPlan) Content(offset, limit int) ContentQuery {
	join := p.Join
	return ContentQuery{
		Conditions: p.Conditions,
		Join:       &join,
		Projection: p.Projection,
		OrderBy:    FieldMemberID,
		Offset:     offset,
		Limit:      limit,
	}
}

// Count returns the count query; the join is dropped unless a filter needs it.
func (p QueryPlan) Count() CountQuery {
	q := CountQuery{Conditions: p.Conditions}
	if AnyJoinDependent(p.Conditions) {
		join := p.Join
		q.Join = &join
	}
	return q
}
