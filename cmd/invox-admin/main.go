// Command invox-admin runs operational tasks against the invox stores
// directly: migrations, tenant inspection and audit retention.
package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	log = logrus.New()

	flagDatabaseURL string
	flagProfile     string
)

// configFile is the optional ~/.invox/config.yaml.
type configFile struct {
	// Flat format
	DatabaseURL string `yaml:"database_url"`
	// Profile format
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	DatabaseURL string `yaml:"database_url"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "invox-admin",
		Short: "invox administrative tooling",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagDatabaseURL, "database-url", "", "directory database URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "config profile from ~/.invox/config.yaml")

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newMigrateTenantsCmd())
	rootCmd.AddCommand(newTenantsCmd())
	rootCmd.AddCommand(newAuditCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills the database URL: flag, then env, then config file.
func resolveConfig() {
	if flagDatabaseURL == "" {
		flagDatabaseURL = os.Getenv("DATABASE_URL")
	}
	if flagDatabaseURL != "" {
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	data, err := os.ReadFile(filepath.Join(home, ".invox", "config.yaml"))
	if err != nil {
		return
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}

	profile := flagProfile
	if profile == "" {
		profile = cfg.ActiveProfile
	}
	if p, ok := cfg.Profiles[profile]; ok && p.DatabaseURL != "" {
		flagDatabaseURL = p.DatabaseURL
		return
	}

	flagDatabaseURL = cfg.DatabaseURL
}

func requireDatabaseURL() string {
	if flagDatabaseURL == "" {
		log.Fatal("no database URL configured: set --database-url, DATABASE_URL or ~/.invox/config.yaml")
	}

	return flagDatabaseURL
}
