package config

import (
	"fmt"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	PGHost     string `mapstructure:"pghost"`
	PGUser     string `mapstructure:"pguser"`
	PGPassword string `mapstructure:"pgpassword"`
	PGDatabase string `mapstructure:"pgdatabase"`
	InFile     string `mapstructure:"in_file"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// Load resolves configuration from flags first, then environment
// (PGHOST, PGUSER, PGPASSWORD, PGDATABASE), then defaults.
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("geoipload", flag.ContinueOnError)
	flags.String("pghost", "", "Postgres hostname")
	flags.String("pguser", "", "Postgres user")
	flags.String("pgpassword", "", "Postgres password")
	flags.String("pgdatabase", "", "Postgres database name")
	flags.String("in_file", "", "DB-IP input file (Lite CSV format)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("pghost", "localhost")
	v.SetDefault("pguser", "openbmp")
	v.SetDefault("pgpassword", "openbmp")
	v.SetDefault("pgdatabase", "openbmp")
	v.SetDefault("batch_size", 5000)

	for _, key := range []string{"pghost", "pguser", "pgpassword", "pgdatabase", "batch_size"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	// Flags win over environment, but only when actually set.
	var bindErr error
	flags.Visit(func(f *flag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.InFile == "" {
		return nil, fmt.Errorf("--in_file is required")
	}

	return &config, nil
}

// DSN renders the lib/pq key=value connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
		c.PGHost, c.PGUser, c.PGPassword, c.PGDatabase)
}
