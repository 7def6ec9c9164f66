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
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/tomoncle/teamsearch/database"
	"github.com/tomoncle/teamsearch/model"
	"github.com/tomoncle/teamsearch/repository"
	"github.com/tomoncle/teamsearch/search"
	"github.com/tomoncle/teamsearch/types"
	"github.com/tomoncle/teamsearch/utils"
)

type MemberService interface {
	// Search returns every member matching c, in member id order.
	Search(ctx context.Context, c search.Criteria) ([]*model.MemberTeamDto, error)

	// SearchPageSimple pages the search and always counts.
	SearchPageSimple(ctx context.Context, c search.Criteria, page types.PageRequest) (*search.Page, error)

	// SearchPageOptimized pages the search and counts only when needed.
	SearchPageOptimized(ctx context.Context, c search.Criteria, page types.PageRequest) (*search.Page, error)

	// SearchPage pages the search with the given count strategy.
	SearchPage(ctx context.Context, c search.Criteria, page types.PageRequest, strategy types.CountStrategy) (*search.Page, error)

	// Save inserts new members and updates existing ones.
	Save(ctx context.Context, members ...*model.Member) error

	// Get returns a member with its team loaded.
	Get(ctx context.Context, id int64) (*model.Member, error)

	FindByName(ctx context.Context, name string) ([]*model.Member, error)

	BulkRename(ctx context.Context, name string, ageGreaterThan int) (int64, error)

	BulkAddAge(ctx context.Context, delta int) (int64, error)

	BulkDeleteOlderThan(ctx context.Context, age int) (int64, error)

	// Seed loads the fixture, or the default data set when f is nil.
	Seed(ctx context.Context, f *Fixture) (*SeedResult, error)
}

// ErrNotInitialized is returned by the default service before database.InitDB
// or after database.CloseDB.
var ErrNotInitialized = errors.New("database not initialized")

type memberServiceImpl struct {
	resolve func() (bun.IDB, error)
	logger  *logrus.Logger
}

var (
	defaultService     MemberService
	defaultServiceOnce sync.Once
)

// NewMemberService returns a MemberService bound to db.
func NewMemberService(db bun.IDB) MemberService {
	return &memberServiceImpl{
		resolve: func() (bun.IDB, error) { return db, nil },
		logger:  utils.NewLogger("SEARCH"),
	}
}

// DefaultMemberService returns the shared service. Each call uses the global
// database current at that time, so it follows database.CloseDB and a later
// database.InitDB.
func DefaultMemberService() MemberService {
	defaultServiceOnce.Do(func() {
		defaultService = &memberServiceImpl{
			resolve: globalDB,
			logger:  utils.NewLogger("SEARCH"),
		}
	})
	return defaultService
}

func globalDB() (bun.IDB, error) {
	db := database.GetDB()
	if db == nil {
		return nil, ErrNotInitialized
	}
	return db, nil
}

func (s *memberServiceImpl) conn() (bun.IDB, error) {
	return s.resolve()
}

func (s *memberServiceImpl) members() (*repository.MemberRepository, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return repository.NewMemberRepository(db), nil
}

func (s *memberServiceImpl) Search(ctx context.Context, c search.Criteria) ([]*model.MemberTeamDto, error) {
	repo, err := s.members()
	if err != nil {
		return nil, err
	}
	rows, err := search.Search(ctx, repo, c)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"criteria": c.String(), "rows": len(rows)}).Debug("search")
	return rows, nil
}

func (s *memberServiceImpl) SearchPageSimple(ctx context.Context, c search.Criteria, page types.PageRequest) (*search.Page, error) {
	return s.SearchPage(ctx, c, page, types.CountSimple)
}

func (s *memberServiceImpl) SearchPageOptimized(ctx context.Context, c search.Criteria, page types.PageRequest) (*search.Page, error) {
	return s.SearchPage(ctx, c, page, types.CountOptimized)
}

func (s *memberServiceImpl) SearchPage(ctx context.Context, c search.Criteria, page types.PageRequest, strategy types.CountStrategy) (*search.Page, error) {
	repo, err := s.members()
	if err != nil {
		return nil, err
	}
	eng := &countObserver{Engine: repo}
	result, err := search.SearchPage(ctx, eng, c, page, strategy)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"criteria": c.String(),
		"page":     page.String(),
		"strategy": strategy.Name(),
		"rows":     len(result.Items),
		"total":    result.Total,
		"counted":  eng.counted,
	}).Debug("search page")
	return result, nil
}

func (s *memberServiceImpl) Save(ctx context.Context, members ...*model.Member) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		repo := repository.NewMemberRepository(tx)
		for _, m := range members {
			if err := repo.Save(ctx, m); err != nil {
				return fmt.Errorf("save %s: %w", m, err)
			}
		}
		return nil
	})
}

func (s *memberServiceImpl) Get(ctx context.Context, id int64) (*model.Member, error) {
	repo, err := s.members()
	if err != nil {
		return nil, err
	}
	return repo.FindByIDWithTeam(ctx, id)
}

func (s *memberServiceImpl) FindByName(ctx context.Context, name string) ([]*model.Member, error) {
	repo, err := s.members()
	if err != nil {
		return nil, err
	}
	return repo.FindByName(ctx, name)
}

func (s *memberServiceImpl) BulkRename(ctx context.Context, name string, ageGreaterThan int) (int64, error) {
	repo, err := s.members()
	if err != nil {
		return 0, err
	}
	n, err := repo.BulkRename(ctx, name, ageGreaterThan)
	if err == nil {
		s.logger.WithFields(logrus.Fields{"name": name, "age_gt": ageGreaterThan, "rows": n}).Info("bulk rename")
	}
	return n, err
}

func (s *memberServiceImpl) BulkAddAge(ctx context.Context, delta int) (int64, error) {
	repo, err := s.members()
	if err != nil {
		return 0, err
	}
	n, err := repo.BulkAddAge(ctx, delta)
	if err == nil {
		s.logger.WithFields(logrus.Fields{"delta": delta, "rows": n}).Info("bulk add age")
	}
	return n, err
}

func (s *memberServiceImpl) BulkDeleteOlderThan(ctx context.Context, age int) (int64, error) {
	repo, err := s.members()
	if err != nil {
		return 0, err
	}
	n, err := repo.BulkDeleteOlderThan(ctx, age)
	if err == nil {
		s.logger.WithFields(logrus.Fields{"age_gt": age, "rows": n}).Info("bulk delete")
	}
	return n, err
}

// countObserver records whether the count query ran.
type countObserver struct {
	search.Engine
	counted bool
}

func (o *countObserver) Count(ctx context.Context, q search.CountQuery) (int, error) {
	o.counted = true
	return o.Engine.Count(ctx, q)
}
