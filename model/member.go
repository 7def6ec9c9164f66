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

package model

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Team groups members. Names are unique.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
	BaseEntity
}

var _ bun.BeforeAppendModelHook = (*Team)(nil)

func (t *Team) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	t.touch(ctx, query)
	return nil
}

// NewTeam returns an unsaved team.
func NewTeam(name string) *Team {
	return &Team{Name: name}
}

func (t *Team) String() string {
	return fmt.Sprintf("Team(id=%d, name=%s)", t.ID, t.Name)
}

// Member belongs to at most one team.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	ID     int64  `bun:"id,pk,autoincrement" json:"id"`
	Name   string `bun:"name,notnull" json:"name"`
	Age    int    `bun:"age,notnull" json:"age"`
	TeamID *int64 `bun:"team_id" json:"team_id,omitempty"`
	Team   *Team  `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty"`
	BaseEntity
}

var _ bun.BeforeAppendModelHook = (*Member)(nil)

func (m *Member) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	m.touch(ctx, query)
	return nil
}

// NewMember returns an unsaved member. A nil team leaves the member unassigned.
func NewMember(name string, age int, team *Team) *Member {
	m := &Member{Name: name, Age: age}
	m.ChangeTeam(team)
	return m
}

// ChangeTeam moves the member to team, or clears the assignment when team is nil.
func (m *Member) ChangeTeam(team *Team) {
	m.Team = team
	if team == nil {
		m.TeamID = nil
		return
	}
	id := team.ID
	m.TeamID = &id
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, name=%s, age=%d)", m.ID, m.Name, m.Age)
}
