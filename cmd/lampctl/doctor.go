package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/avelichko/lampctl/internal/catalog"
	"github.com/avelichko/lampctl/internal/cert"
	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/db"
	"github.com/avelichko/lampctl/internal/preflight"
	"github.com/avelichko/lampctl/internal/runner"
	"github.com/avelichko/lampctl/internal/stack"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check host prerequisites and stack health",
		Long:  "Runs diagnostic checks on lampctl prerequisites: config, privileges, host OS, binaries, podman, containers, backup root and TLS certificate.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), cmd.OutOrStdout(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to lampctl config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(ctx context.Context, out io.Writer, configPath string) error {
	fmt.Fprintln(out, "lampctl Doctor")
	fmt.Fprintln(out, "==============")

	r := newRunner()
	var results []checkResult

	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	results = append(results, checkPrivileges())
	results = append(results, checkHostOS())

	results = append(results, checkBinary("podman", true))
	certbotRequired := cfg != nil && cfg.Domain != ""
	results = append(results, checkBinary("certbot", certbotRequired))
	results = append(results, checkBinary("crontab", true))

	results = append(results, checkPodman(ctx, r))

	if cfg != nil {
		results = append(results, checkContainers(ctx, r, cfg)...)
		results = append(results, checkDatabase(ctx, cfg))
		results = append(results, checkBackupRoot(cfg.Backup.Root))
		if cfg.Domain != "" {
			results = append(results, checkCertificate(cfg))
		}
	}

	passed, failed, warned := 0, 0, 0
	for _, res := range results {
		fmt.Fprintf(out, "[%s] %s: %s\n", res.status, res.name, res.detail)
		switch res.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

func checkPrivileges() checkResult {
	if err := preflight.CheckRoot(); err != nil {
		return checkResult{"Privileges", "WARN", "not running as root, setup and backup will fail"}
	}
	return checkResult{"Privileges", "PASS", "running as root"}
}

func checkHostOS() checkResult {
	info, err := preflight.CheckOS(preflight.OSReleasePath)
	if err != nil {
		return checkResult{"Host OS", "FAIL", err.Error()}
	}
	return checkResult{"Host OS", "PASS", info.PrettyName}
}

func checkBinary(name string, required bool) checkResult {
	path, err := exec.LookPath(name)
	if err != nil {
		if required {
			return checkResult{name, "FAIL", "not found in PATH"}
		}
		return checkResult{name, "WARN", "not found in PATH (only needed with a domain configured)"}
	}
	return checkResult{name, "PASS", path}
}

func checkPodman(ctx context.Context, r runner.Runner) checkResult {
	out, err := r.Output(ctx, "podman", "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return checkResult{"Podman", "FAIL", err.Error()}
	}
	return checkResult{"Podman", "PASS", "version " + strings.TrimSpace(out)}
}

func checkContainers(ctx context.Context, r runner.Runner, cfg *config.Config) []checkResult {
	names := []string{cfg.MySQL.Container, cfg.Web.Container, cfg.Admin.Container}
	statuses, err := stack.Status(ctx, r, names)
	if err != nil {
		return []checkResult{{"Containers", "FAIL", err.Error()}}
	}
	results := make([]checkResult, 0, len(statuses))
	for _, s := range statuses {
		if s.Running {
			results = append(results, checkResult{"Container " + s.Name, "PASS", s.Status})
		} else {
			results = append(results, checkResult{"Container " + s.Name, "WARN", s.Status})
		}
	}
	return results
}

func checkDatabase(ctx context.Context, cfg *config.Config) checkResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.WaitReady(ctx, "127.0.0.1", cfg.MySQL.Port, cfg.MySQL.RootPassword, 5*time.Second); err != nil {
		return checkResult{"Database", "WARN", fmt.Sprintf("not reachable on port %d", cfg.MySQL.Port)}
	}
	return checkResult{"Database", "PASS", fmt.Sprintf("mysql answering on port %d", cfg.MySQL.Port)}
}

func checkBackupRoot(root string) checkResult {
	info, err := os.Stat(root)
	if err != nil {
		return checkResult{"Backup root", "WARN", fmt.Sprintf("%s does not exist yet, created on first backup", root)}
	}
	if !info.IsDir() {
		return checkResult{"Backup root", "FAIL", root + " is not a directory"}
	}
	if _, err := catalog.Open(root); err != nil {
		return checkResult{"Backup root", "FAIL", err.Error()}
	}
	return checkResult{"Backup root", "PASS", root}
}

func checkCertificate(cfg *config.Config) checkResult {
	if cert.Installed(cfg.Web.CertDir) {
		return checkResult{"TLS certificate", "PASS", filepath.Join(cfg.Web.CertDir, "fullchain.pem")}
	}
	return checkResult{"TLS certificate", "WARN", "not installed, run setup or renew"}
}
