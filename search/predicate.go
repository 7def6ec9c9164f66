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

// Source identifies the record a field is read from.
type Source int

const (
	SourceMember Source = iota
	SourceTeam
)

// Field is a filterable or projectable column, qualified by its source record.
type Field string

const (
	FieldMemberID   Field = "member.id"
	FieldMemberName Field = "member.name"
	FieldMemberAge  Field = "member.age"
	FieldTeamID     Field = "team.id"
	FieldTeamName   Field = "team.name"
)

// Source reports which record holds the field.
func (f Field) Source() Source {
	if strings.HasPrefix(string(f), "team.") {
		return SourceTeam
	}
	return SourceMember
}

// Column returns the unqualified column name.
func (f Field) Column() string {
	s := string(f)
	return s[strings.IndexByte(s, '.')+1:]
}

// Operator is a comparison applied by an atomic condition.
type Operator int

const (
	OpEq Operator = iota
	OpGoe
	OpLoe
)

func (o Operator) String() string {
	switch o {
	case OpEq:
		return "="
	case OpGoe:
		return ">="
	case OpLoe:
		return "<="
	default:
		return "?"
	}
}

// Condition is one atomic comparison of a field against a value.
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

// JoinDependent reports whether evaluating the condition needs the team record.
func (c Condition) JoinDependent() bool {
	return c.Field.Source() == SourceTeam
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Predicate is an optional condition. An absent predicate contributes nothing
// to a conjunction.
type Predicate struct {
	cond    Condition
	present bool
}

// None returns an absent predicate.
func None() Predicate { return Predicate{} }

// Of wraps a condition as a present predicate.
func Of(c Condition) Predicate { return Predicate{cond: c, present: true} }

func (p Predicate) Present() bool { return p.present }

// Condition returns the wrapped condition and whether it is present.
func (p Predicate) Condition() (Condition, bool) { return p.cond, p.present }

// TextEq matches field against value, or is absent when value is blank.
func TextEq(field Field, value string) Predicate {
	if strings.TrimSpace(value) == "" {
		return None()
	}
	return Of(Condition{Field: field, Op: OpEq, Value: value})
}

// IntGoe matches field >= *value, or is absent when value is nil.
func IntGoe(field Field, value *int) Predicate {
	if value == nil {
		return None()
	}
	return Of(Condition{Field: field, Op: OpGoe, Value: *value})
}

// IntLoe matches field <= *value, or is absent when value is nil.
func IntLoe(field Field, value *int) Predicate {
	if value == nil {
		return None()
	}
	return Of(Condition{Field: field, Op: OpLoe, Value: *value})
}

// All folds predicates into a conjunction, keeping present conditions in order.
// An empty result matches every record.
func All(preds ...Predicate) []Condition {
	conds := make([]Condition, 0, len(preds))
	for _, p := range preds {
		if c, ok := p.Condition(); ok {
			conds = append(conds, c)
		}
	}
	return conds
}

// AnyJoinDependent reports whether any condition reads the team record.
func AnyJoinDependent(conds []Condition) bool {
	for _, c := range conds {
		if c.JoinDependent() {
			return true
		}
	}
	return false
}
