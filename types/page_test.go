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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestValidate(t *testing.T) {
	cases := []struct {
		name   string
		page   PageRequest
		wantOK bool
	}{
		{"first page", NewPageRequest(0, 3), true},
		{"deep offset", NewPageRequest(250, 10), true},
		{"negative offset", NewPageRequest(-1, 10), false},
		{"zero limit", NewPageRequest(0, 0), false},
		{"negative limit", NewPageRequest(5, -2), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.page.Validate()
			if tc.wantOK {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrInvalidPageRequest), "got %v", err)
		})
	}
}

func TestPageOf(t *testing.T) {
	p := PageOf(2, 25)
	assert.Equal(t, 50, p.GetOffset())
	assert.Equal(t, 25, p.GetLimit())
	assert.Equal(t, "offset=50 limit=25", p.String())
}

func TestPaginationHelpers(t *testing.T) {
	one, two, three := 1, 2, 3
	page := NewPagination(NewPageRequest(3, 3), []*int{&one, &two, &three}, 7)

	assert.Equal(t, 1, page.Number())
	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasNext())
	assert.False(t, page.IsLast())

	last := NewPagination(NewPageRequest(6, 3), []*int{&one}, 7)
	assert.True(t, last.IsLast())

	empty := NewPagination[int](NewPageRequest(0, 10), nil, 0)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages())
}

func TestParseCountStrategy(t *testing.T) {
	assert.Equal(t, CountSimple, ParseCountStrategy("simple"))
	assert.Equal(t, CountOptimized, ParseCountStrategy(" Optimized "))

	bad := ParseCountStrategy("eager")
	assert.False(t, bad.IsValid())
	assert.Equal(t, IllegalName, bad.Name())
	assert.Equal(t, IllegalDesc, bad.Desc())
	assert.Equal(t, "optimized", CountOptimized.String())
}
