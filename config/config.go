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

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tomoncle/teamsearch/database"
	"github.com/tomoncle/teamsearch/types"
	"github.com/tomoncle/teamsearch/utils"
)

// EnvPrefix prefixes every environment override, e.g.
// TEAMSEARCH_DATABASE_HOST for database.host.
const EnvPrefix = "TEAMSEARCH"

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Search   SearchConfig   `mapstructure:"search"`
	Server   ServerConfig   `mapstructure:"server"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type DatabaseConfig struct {
	Type            string        `mapstructure:"type"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	SlowQueryTime   time.Duration `mapstructure:"slow_query_time"`
	EnableQueryLog  bool          `mapstructure:"enable_query_log"`
	Migrate         MigrateConfig `mapstructure:"migrate"`
}

type MigrateConfig struct {
	OnStartup   bool `mapstructure:"on_startup"`
	ForeignKeys bool `mapstructure:"foreign_keys"`
	Indexes     bool `mapstructure:"indexes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type SearchConfig struct {
	Strategy     string `mapstructure:"strategy"` // simple or optimized
	DefaultLimit int    `mapstructure:"default_limit"`
	MaxLimit     int    `mapstructure:"max_limit"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type SeedConfig struct {
	File string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	conn := database.DefaultConnectionConfig()
	migrate := database.DefaultMigrateConfig()

	v.SetDefault("database.type", conn.Type)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", conn.DBName)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", conn.MaxIdleConns)
	v.SetDefault("database.max_open_conns", conn.MaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", conn.ConnMaxLifetime)
	v.SetDefault("database.connect_timeout", conn.ConnectTimeout)
	v.SetDefault("database.slow_query_time", conn.SlowQueryTime)
	v.SetDefault("database.enable_query_log", conn.EnableQueryLog)
	v.SetDefault("database.migrate.on_startup", migrate.EnableMigrateOnStartup)
	v.SetDefault("database.migrate.foreign_keys", migrate.EnableForeignKey)
	v.SetDefault("database.migrate.indexes", migrate.EnableIndexes)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("search.strategy", types.CountOptimized.Name())
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.max_limit", 100)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("seed.file", "")
}

// Load reads path (optional, any format viper understands) and applies
// TEAMSEARCH_* environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if !c.CountStrategy().IsValid() {
		return fmt.Errorf("search.strategy: unknown strategy %q", c.Search.Strategy)
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit %d is below default_limit %d", c.Search.MaxLimit, c.Search.DefaultLimit)
	}
	return nil
}

func (c *Config) CountStrategy() types.CountStrategy {
	return types.ParseCountStrategy(c.Search.Strategy)
}

// ApplyLogging configures every module logger.
func (c *Config) ApplyLogging() {
	utils.ConfigureConsoleLogFormat(c.Log.Format)
	utils.ConfigureLogLevel(c.Log.Level)
}

// DatabaseConfig converts the database section for database.InitDB.
func (c *Config) DatabaseConfig() *database.Config {
	conn := database.DefaultConnectionConfig()
	conn.Type = c.Database.Type
	conn.Host = c.Database.Host
	conn.Port = c.Database.Port
	conn.Username = c.Database.Username
	conn.Password = c.Database.Password
	conn.DBName = c.Database.DBName
	conn.SSLMode = c.Database.SSLMode
	conn.MaxIdleConns = c.Database.MaxIdleConns
	conn.MaxOpenConns = c.Database.MaxOpenConns
	conn.ConnMaxLifetime = c.Database.ConnMaxLifetime
	conn.ConnectTimeout = c.Database.ConnectTimeout
	conn.SlowQueryTime = c.Database.SlowQueryTime
	conn.EnableQueryLog = c.Database.EnableQueryLog

	return &database.Config{
		ConnectionConfig: *conn,
		MigrateConfig: database.MigrateConfig{
			EnableMigrateOnStartup: c.Database.Migrate.OnStartup,
			EnableForeignKey:       c.Database.Migrate.ForeignKeys,
			EnableIndexes:          c.Database.Migrate.Indexes,
		},
		SeedConfig: database.SeedConfig{File: c.Seed.File},
	}
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)
