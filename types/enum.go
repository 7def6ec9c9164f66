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

import "strings"

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// CountStrategy selects how a paged search obtains its total element count.
type CountStrategy int

const (
	// CountSimple always issues a separate count query.
	CountSimple CountStrategy = iota + 1
	// CountOptimized skips the count query when the page is provably the last one.
	CountOptimized
)

var _ BaseEnum = CountSimple

var countStrategyNames = map[CountStrategy]string{
	CountSimple:    "simple",
	CountOptimized: "optimized",
}

var countStrategyDescs = map[CountStrategy]string{
	CountSimple:    "content query plus count query",
	CountOptimized: "content query, count query only when more pages may exist",
}

// ParseCountStrategy resolves a strategy by name, case-insensitively.
// Unknown names return an invalid strategy.
func ParseCountStrategy(name string) CountStrategy {
	s := strings.ToLower(strings.TrimSpace(name))
	for k, v := range countStrategyNames {
		if v == s {
			return k
		}
	}
	return CountStrategy(IllegalValue)
}

func (s CountStrategy) IsValid() bool {
	_, ok := countStrategyNames[s]
	return ok
}

func (s CountStrategy) Number() int { return int(s) }

func (s CountStrategy) String() string { return s.Name() }

func (s CountStrategy) Name() string {
	if n, ok := countStrategyNames[s]; ok {
		return n
	}
	return IllegalName
}

func (s CountStrategy) Desc() string {
	if d, ok := countStrategyDescs[s]; ok {
		return d
	}
	return IllegalDesc
}
