package cmd

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// SourceConfig is the MySQL side of the migration.
type SourceConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// TargetConfig is the Neon/PostgreSQL side. Endpoint carries the Neon
// compute endpoint id, injected as the endpoint connection option.
type TargetConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema"`
	Endpoint string `mapstructure:"endpoint"`
}

// TablesConfig filters the cataloged tables for a run.
type TablesConfig struct {
	Exclude         []string `mapstructure:"exclude"`
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
}

type Config struct {
	Source SourceConfig `mapstructure:"source"`
	Target TargetConfig `mapstructure:"target"`
	Tables TablesConfig `mapstructure:"tables"`
}

// LoadConfig builds the config object once at start. Components receive it
// explicitly; nothing reads viper or the environment after this point.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Source.Port == 0 {
		cfg.Source.Port = 3306
	}
	if cfg.Target.Schema == "" {
		cfg.Target.Schema = "public"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enumerates every missing required key in one error, so the
// operator fixes the config in a single pass.
func (c *Config) Validate() error {
	required := []struct {
		key string
		val string
	}{
		{"source.host", c.Source.Host},
		{"source.user", c.Source.User},
		{"source.password", c.Source.Password},
		{"source.database", c.Source.Database},
		{"target.host", c.Target.Host},
		{"target.user", c.Target.User},
		{"target.password", c.Target.Password},
		{"target.database", c.Target.Database},
	}
	var missing []string
	for _, r := range required {
		if r.val == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DSN assembles the MySQL connection string. parseTime stays off: values
// are scanned as raw bytes and handed to COPY in MySQL's own text form.
func (c SourceConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

// URL assembles the PostgreSQL connection URL.
func (c TargetConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host,
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", "require")
	if c.Endpoint != "" {
		q.Set("options", "endpoint="+c.Endpoint)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
