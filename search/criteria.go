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
	"fmt"
	"strings"
)

// Criteria holds optional member search filters. Blank strings and nil
// pointers place no constraint on their field. AgeMin <= AgeMax is not checked;
// an inverted range simply matches nothing.
type Criteria struct {
	Name     string `json:"name,omitempty"`
	TeamName string `json:"teamName,omitempty"`
	AgeMin   *int   `json:"ageMin,omitempty"`
	AgeMax   *int   `json:"ageMax,omitempty"`
}

// Compose turns criteria into the conjunction of its present conditions, in
// the order name, team name, minimum age, maximum age.
func Compose(c Criteria) []Condition {
	return All(
		TextEq(FieldMemberName, c.Name),
		TextEq(FieldTeamName, c.TeamName),
		IntGoe(FieldMemberAge, c.AgeMin),
		IntLoe(FieldMemberAge, c.AgeMax),
	)
}

func (c Criteria) String() string {
	var parts []string
	for _, cond := range Compose(c) {
		parts = append(parts, cond.String())
	}
	if len(parts) == 0 {
		return "<all>"
	}
	return fmt.Sprintf("<%s>", strings.Join(parts, " AND "))
}
