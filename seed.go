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

package teamsearch

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"

	"github.com/tomoncle/teamsearch/model"
	"github.com/tomoncle/teamsearch/repository"
)

// Fixture is a seed data set. Members reference teams by name; an empty team
// leaves the member unassigned.
type Fixture struct {
	Teams   []string        `yaml:"teams"`
	Members []FixtureMember `yaml:"members"`
}

type FixtureMember struct {
	Name string `yaml:"name"`
	Age  int    `yaml:"age"`
	Team string `yaml:"team"`
}

type SeedResult struct {
	Teams   int `json:"teams"`
	Members int `json:"members"`
}

// DefaultFixture returns teamA and teamB with member0..member99, aged by
// index, alternating between the two teams starting with teamA.
func DefaultFixture() *Fixture {
	f := &Fixture{Teams: []string{"teamA", "teamB"}}
	for i := 0; i < 100; i++ {
		team := "teamA"
		if i%2 != 0 {
			team = "teamB"
		}
		f.Members = append(f.Members, FixtureMember{Name: fmt.Sprintf("member%d", i), Age: i, Team: team})
	}
	return f
}

// LoadFixture reads and validates a YAML fixture.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

func ParseFixture(data []byte) (*Fixture, error) {
	f := new(Fixture)
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks that every member names a declared team.
func (f *Fixture) Validate() error {
	declared := make(map[string]struct{}, len(f.Teams))
	for _, t := range f.Teams {
		if t == "" {
			return fmt.Errorf("fixture: empty team name")
		}
		declared[t] = struct{}{}
	}
	for _, m := range f.Members {
		if m.Name == "" {
			return fmt.Errorf("fixture: member without name")
		}
		if _, ok := declared[m.Team]; m.Team != "" && !ok {
			return fmt.Errorf("fixture: member %s references undeclared team %s", m.Name, m.Team)
		}
	}
	return nil
}

func (s *memberServiceImpl) Seed(ctx context.Context, f *Fixture) (*SeedResult, error) {
	if f == nil {
		f = DefaultFixture()
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	res := &SeedResult{}
	err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		teams := repository.NewTeamRepository(tx)
		if len(f.Teams) > 0 {
			records := make([]*model.Team, len(f.Teams))
			for i, name := range f.Teams {
				records[i] = model.NewTeam(name)
			}
			if err := teams.UpsertByName(ctx, records...); err != nil {
				return fmt.Errorf("upsert teams: %w", err)
			}
		}
		byName, err := teams.FindByNames(ctx, f.Teams...)
		if err != nil {
			return fmt.Errorf("load teams: %w", err)
		}

		members := make([]*model.Member, len(f.Members))
		for i, fm := range f.Members {
			members[i] = model.NewMember(fm.Name, fm.Age, byName[fm.Team])
		}
		if err := repository.NewMemberRepository(tx).Create(ctx, members...); err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		res.Teams, res.Members = len(byName), len(members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"teams": res.Teams, "members": res.Members}).Info("seed completed")
	return res, nil
}
