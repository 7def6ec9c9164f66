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

package utils

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestLog4jFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "SEARCH", NameWidth: 8}
	l := logrus.New()
	entry := logrus.NewEntry(l).WithFields(logrus.Fields{"rows": 3, "strategy": "optimized"})
	entry.Message = "page fetched"
	entry.Level = logrus.InfoLevel

	out, err := f.Format(entry)
	assert.NoError(t, err)
	line := string(out)
	assert.Contains(t, line, "   INFO")
	assert.Contains(t, line, "[SEARCH  ]")
	assert.Contains(t, line, "page fetched rows=3 strategy=optimized\n")
	assert.NotContains(t, line, ansiReset)
}

func TestNewLoggerRegistry(t *testing.T) {
	var buf bytes.Buffer
	ConfigureOutput(&buf)
	defer ConfigureOutput(os.Stdout)

	l := NewLogger("UTILS_TEST")
	assert.Same(t, l, NewLogger("UTILS_TEST"))

	assert.True(t, SetLoggerLevel("UTILS_TEST", "warn"))
	assert.False(t, SetLoggerLevel("MISSING", "warn"))

	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("bogus"))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("UTILS_TEST_BOOL", "true")
	t.Setenv("UTILS_TEST_BAD", "maybe")
	assert.True(t, EnvDefaultBool("UTILS_TEST_BOOL", false))
	assert.True(t, EnvDefaultBool("UTILS_TEST_BAD", true))
	assert.Equal(t, "x", EnvDefaultString("UTILS_TEST_UNSET", "x"))
}
