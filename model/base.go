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
	"time"

	"github.com/uptrace/bun"
)

// DefaultAuditor is recorded when the context carries no auditor.
const DefaultAuditor = "system"

type auditorKey struct{}

// WithAuditor returns a context that records name as the creator/modifier of
// any entity written with it.
func WithAuditor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, auditorKey{}, name)
}

// AuditorFrom returns the auditor stored by WithAuditor, or DefaultAuditor.
func AuditorFrom(ctx context.Context) string {
	if name, ok := ctx.Value(auditorKey{}).(string); ok && name != "" {
		return name
	}
	return DefaultAuditor
}

// BaseTimeEntity carries creation and modification timestamps.
type BaseTimeEntity struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// BaseEntity adds the auditor columns to BaseTimeEntity.
type BaseEntity struct {
	BaseTimeEntity
	CreatedBy      string `bun:"created_by" json:"created_by"`
	LastModifiedBy string `bun:"last_modified_by" json:"last_modified_by"`
}

// touch fills audit columns for the given query kind.
func (e *BaseEntity) touch(ctx context.Context, query bun.Query) {
	now := time.Now()
	who := AuditorFrom(ctx)
	switch query.(type) {
	case *bun.InsertQuery:
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		if e.CreatedBy == "" {
			e.CreatedBy = who
		}
		e.UpdatedAt = now
		e.LastModifiedBy = who
	case *bun.UpdateQuery:
		e.UpdatedAt = now
		e.LastModifiedBy = who
	}
}
