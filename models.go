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
	"github.com/tomoncle/teamsearch/database"
	"github.com/tomoncle/teamsearch/model"
)

const (
	teamPriority   = 10
	memberPriority = 20
)

func init() {
	database.RegisteredModel(database.NewModelAdapter((*model.Team)(nil), teamPriority))
	database.RegisteredModel(database.NewModelAdapter((*model.Member)(nil), memberPriority).
		WithForeignKeys(`(team_id) REFERENCES teams (id) ON DELETE SET NULL`).
		WithIndex("idx_members_name", "name").
		WithIndex("idx_members_team_id", "team_id").
		WithIndex("idx_members_age", "age"))
}
