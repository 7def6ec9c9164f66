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
	"fmt"

	"github.com/tomoncle/teamsearch/model"
	"github.com/tomoncle/teamsearch/types"
)

// Engine executes planned queries against the store. Implementations must be
// bound to a single unit of work; the search functions keep no state of their own.
type Engine interface {
	Fetch(ctx context.Context, q ContentQuery) ([]*model.MemberTeamDto, error)
	Count(ctx context.Context, q CountQuery) (int, error)
}

// Page is a page of projected members.
type Page = types.Pagination[model.MemberTeamDto]

// Search returns every member matching c, in member id order.
func Search(ctx context.Context, eng Engine, c Criteria) ([]*model.MemberTeamDto, error) {
	return eng.Fetch(ctx, Plan(c).Content(0, 0))
}

// SearchPageSimple runs the content query and then always the count query.
func SearchPageSimple(ctx context.Context, eng Engine, c Criteria, page types.PageRequest) (*Page, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	plan := Plan(c)
	rows, err := eng.Fetch(ctx, plan.Content(page.GetOffset(), page.GetLimit()))
	if err != nil {
		return nil, err
	}
	total, err := eng.Count(ctx, plan.Count())
	if err != nil {
		return nil, err
	}
	return types.NewPagination(page, rows, total), nil
}

// SearchPageOptimized runs the content query and issues the count query only
// when the total cannot be derived from the rows already fetched.
func SearchPageOptimized(ctx context.Context, eng Engine, c Criteria, page types.PageRequest) (*Page, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	plan := Plan(c)
	rows, err := eng.Fetch(ctx, plan.Content(page.GetOffset(), page.GetLimit()))
	if err != nil {
		return nil, err
	}
	if total, ok := derivedTotal(page, len(rows)); ok {
		return types.NewPagination(page, rows, total), nil
	}
	total, err := eng.Count(ctx, plan.Count())
	if err != nil {
		return nil, err
	}
	return types.NewPagination(page, rows, total), nil
}

// SearchPage dispatches to the strategy's implementation.
func SearchPage(ctx context.Context, eng Engine, c Criteria, page types.PageRequest, strategy types.CountStrategy) (*Page, error) {
	switch strategy {
	case types.CountSimple:
		return SearchPageSimple(ctx, eng, c, page)
	case types.CountOptimized:
		return SearchPageOptimized(ctx, eng, c, page)
	default:
		return nil, fmt.Errorf("unsupported count strategy: %d", strategy)
	}
}

// derivedTotal computes the total from a short page. A short page is the last
// one, except an empty page past offset 0: the offset may overshoot the end.
func derivedTotal(page types.PageRequest, rows int) (int, bool) {
	if rows >= page.GetLimit() {
		return 0, false
	}
	if page.GetOffset() == 0 {
		return rows, true
	}
	if rows > 0 {
		return page.GetOffset() + rows, true
	}
	return 0, false
}
