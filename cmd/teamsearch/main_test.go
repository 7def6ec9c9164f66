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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/teamsearch/database"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", ""))
	err := cmd.Execute()
	require.NoError(t, err, out.String())
	return out.String()
}

func TestCommands(t *testing.T) {
	t.Cleanup(func() { _ = database.CloseDB() })
	dir := t.TempDir()
	t.Setenv("TEAMSEARCH_DATABASE_TYPE", "sqlite")
	t.Setenv("TEAMSEARCH_DATABASE_DBNAME", filepath.Join(dir, "teamsearch"))

	out := run(t, "migrate")
	assert.Contains(t, out, "0001")
	assert.Contains(t, out, "member_indexes")

	out = run(t, "seed")
	assert.Contains(t, out, "seeded 2 teams, 100 members")

	out = run(t, "search", "--team-name", "teamA", "--age-max", "9", "--limit", "3", "--strategy", "simple")
	assert.Contains(t, out, "member4")
	assert.NotContains(t, out, "member6")
	assert.Contains(t, out, "page: 1/2 total: 5 strategy: simple")

	out = run(t, "search", "--all", "--age-min", "95")
	assert.Contains(t, out, "rows: 5")

	out = run(t, "bulk", "delete", "--age-gt", "49")
	assert.Contains(t, out, "50 rows affected")

	out = run(t, "bulk", "add-age", "--delta", "2")
	assert.Contains(t, out, "50 rows affected")
}

func TestSeedFromFixtureFile(t *testing.T) {
	t.Cleanup(func() { _ = database.CloseDB() })
	dir := t.TempDir()
	t.Setenv("TEAMSEARCH_DATABASE_DBNAME", filepath.Join(dir, "fixture"))
	fixture := filepath.Join(dir, "members.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte("teams: [red]\nmembers:\n  - {name: ann, age: 20, team: red}\n"), 0o600))

	out := run(t, "seed", "--file", fixture)
	assert.Contains(t, out, "seeded 1 teams, 1 members")

	out = run(t, "search", "--team-name", "red")
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "total: 1")
}
