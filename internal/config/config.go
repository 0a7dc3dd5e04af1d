// Package config provides YAML-based configuration loading for lampctl.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where lampctl looks for its config when --config is not given.
// A missing file at this path is not an error; built-in defaults apply.
const DefaultPath = "/etc/lampctl.yaml"

// Config is the top-level lampctl configuration.
type Config struct {
	Domain  string `yaml:"domain"`
	Email   string `yaml:"email"`
	Network string `yaml:"network"`

	MySQL     MySQLConfig     `yaml:"mysql"`
	Web       WebConfig       `yaml:"web"`
	Admin     AdminConfig     `yaml:"admin"`
	Backup    BackupConfig    `yaml:"backup"`
	Notify    NotifyConfig    `yaml:"notify"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// MySQLConfig holds the database container settings and credentials.
type MySQLConfig struct {
	Container    string `yaml:"container"`
	Image        string `yaml:"image"`
	Port         int    `yaml:"port"`
	Database     string `yaml:"database"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	RootPassword string `yaml:"root_password"`
	Volume       string `yaml:"volume"`
}

// WebConfig holds the Apache container settings and its mounted paths.
type WebConfig struct {
	Container string `yaml:"container"`
	Image     string `yaml:"image"`
	HTTPPort  int    `yaml:"http_port"`
	HTTPSPort int    `yaml:"https_port"`
	Root      string `yaml:"root"`
	CertDir   string `yaml:"cert_dir"`
	SSLConf   string `yaml:"ssl_conf"`
}

// AdminConfig holds the phpMyAdmin container settings.
type AdminConfig struct {
	Container string `yaml:"container"`
	Image     string `yaml:"image"`
	Port      int    `yaml:"port"`
}

// BackupConfig holds backup root, retention and schedule settings.
type BackupConfig struct {
	Root          string `yaml:"root"`
	RetentionDays int    `yaml:"retention_days"`
	Schedule      string `yaml:"schedule"`       // 5-field cron expression
	RenewSchedule string `yaml:"renew_schedule"` // 5-field cron expression
}

// NotifyConfig holds optional operator alerting settings. Empty tokens
// disable the corresponding channel.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// DashboardConfig holds the read-only status dashboard settings.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
// If path equals DefaultPath and the file does not exist, built-in defaults
// are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return Parse(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in the fixed stack values used when the config file
// omits them. The literal credentials match the historical installer
// defaults; production hosts are expected to override them.
func (c *Config) applyDefaults() {
	if c.Network == "" {
		c.Network = "lamp_network"
	}

	if c.MySQL.Container == "" {
		c.MySQL.Container = "mysql_server"
	}
	if c.MySQL.Image == "" {
		c.MySQL.Image = "docker.io/library/mysql:8.0"
	}
	if c.MySQL.Port == 0 {
		c.MySQL.Port = 3306
	}
	if c.MySQL.Database == "" {
		c.MySQL.Database = "testdb"
	}
	if c.MySQL.User == "" {
		c.MySQL.User = "user"
	}
	if c.MySQL.Password == "" {
		c.MySQL.Password = "1"
	}
	if c.MySQL.RootPassword == "" {
		c.MySQL.RootPassword = "1"
	}
	if c.MySQL.Volume == "" {
		c.MySQL.Volume = "mysql_data"
	}

	if c.Web.Container == "" {
		c.Web.Container = "apache2_server"
	}
	if c.Web.Image == "" {
		c.Web.Image = "docker.io/library/httpd:2.4"
	}
	if c.Web.HTTPPort == 0 {
		c.Web.HTTPPort = 80
	}
	if c.Web.HTTPSPort == 0 {
		c.Web.HTTPSPort = 443
	}
	if c.Web.Root == "" {
		c.Web.Root = "/opt/apache-ssl/www"
	}
	if c.Web.CertDir == "" {
		c.Web.CertDir = "/opt/apache-ssl/certs"
	}
	if c.Web.SSLConf == "" {
		c.Web.SSLConf = "/opt/apache-ssl/ssl.conf"
	}

	if c.Admin.Container == "" {
		c.Admin.Container = "phpmyadmin"
	}
	if c.Admin.Image == "" {
		c.Admin.Image = "docker.io/phpmyadmin/phpmyadmin:latest"
	}
	if c.Admin.Port == 0 {
		c.Admin.Port = 8080
	}

	if c.Backup.Root == "" {
		c.Backup.Root = "/opt/podman-backups"
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 30
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "0 2 * * *"
	}
	if c.Backup.RenewSchedule == "" {
		c.Backup.RenewSchedule = "0 3 * * *"
	}

	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8088
	}

	if c.Email == "" && c.Domain != "" {
		c.Email = "admin@" + c.Domain
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Backup.RetentionDays < 1 {
		errs = append(errs, "backup.retention_days must be at least 1")
	}
	for _, p := range []struct {
		name string
		val  int
	}{
		{"mysql.port", c.MySQL.Port},
		{"web.http_port", c.Web.HTTPPort},
		{"web.https_port", c.Web.HTTPSPort},
		{"admin.port", c.Admin.Port},
		{"dashboard.port", c.Dashboard.Port},
	} {
		if p.val < 1 || p.val > 65535 {
			errs = append(errs, fmt.Sprintf("%s must be a valid port, got %d", p.name, p.val))
		}
	}
	if c.Domain == "" && c.Email != "" {
		errs = append(errs, "email is set but domain is empty")
	}
	if (c.Notify.SlackToken == "") != (c.Notify.SlackChannel == "") {
		errs = append(errs, "notify.slack_token and notify.slack_channel must be set together")
	}
	if (c.Notify.DiscordToken == "") != (c.Notify.DiscordChannel == "") {
		errs = append(errs, "notify.discord_token and notify.discord_channel must be set together")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
