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

package types

import (
	"errors"
	"fmt"
)

// ErrInvalidPageRequest is returned when a page request has a negative offset
// or a non-positive limit.
var ErrInvalidPageRequest = errors.New("invalid page request")

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// PageRequest describes a window over an ordered result set.
type PageRequest struct {
	offset int
	limit  int
}

// NewPageRequest constructs a PageRequest from a raw offset and limit.
func NewPageRequest(offset int, limit int) PageRequest {
	return PageRequest{offset: offset, limit: limit}
}

// PageOf constructs a PageRequest from a zero-based page number and page size.
func PageOf(page int, size int) PageRequest {
	return PageRequest{offset: page * size, limit: size}
}

func (p PageRequest) GetOffset() int { return p.offset }

func (p PageRequest) GetLimit() int { return p.limit }

// Validate reports ErrInvalidPageRequest when the window cannot be executed.
func (p PageRequest) Validate() error {
	if p.offset < 0 {
		return fmt.Errorf("%w: offset %d is negative", ErrInvalidPageRequest, p.offset)
	}
	if p.limit <= 0 {
		return fmt.Errorf("%w: limit %d must be positive", ErrInvalidPageRequest, p.limit)
	}
	return nil
}

func (p PageRequest) String() string {
	return fmt.Sprintf("offset=%d limit=%d", p.offset, p.limit)
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Offset int  `json:"offset"`
	Limit  int  `json:"limit"`
	Total  int  `json:"total"`
	Items  []*T `json:"items"`
}

// NewPagination builds a result page for the given request.
func NewPagination[T any](page PageRequest, items []*T, total int) *Pagination[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &Pagination[T]{
		Offset: page.offset,
		Limit:  page.limit,
		Total:  total,
		Items:  items,
	}
}

// Number returns the zero-based page number.
func (p *Pagination[T]) Number() int {
	if p.Limit <= 0 {
		return 0
	}
	return p.Offset / p.Limit
}

// TotalPages returns the number of pages needed to hold Total items.
func (p *Pagination[T]) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

func (p *Pagination[T]) HasNext() bool {
	return p.Offset+len(p.Items) < p.Total
}

func (p *Pagination[T]) IsLast() bool {
	return !p.HasNext()
}
