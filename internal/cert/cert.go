// Package cert obtains and renews Let's Encrypt certificates via certbot and
// installs the material where the web container mounts it.
package cert

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/avelichko/lampctl/internal/config"
	"github.com/avelichko/lampctl/internal/runner"
	"github.com/avelichko/lampctl/internal/stack"
)

// LiveDir is where certbot keeps the current certificate material.
// Tests point it at a temp directory.
var LiveDir = "/etc/letsencrypt/live"

var sslConfTemplate = template.Must(template.New("sslconf").Parse(`LoadModule ssl_module modules/mod_ssl.so
LoadModule socache_shmcb_module modules/mod_socache_shmcb.so

Listen 443

SSLCipherSuite HIGH:MEDIUM:!MD5:!RC4:!3DES
SSLProxyCipherSuite HIGH:MEDIUM:!MD5:!RC4:!3DES
SSLHonorCipherOrder on
SSLProtocol all -SSLv3 -TLSv1 -TLSv1.1
SSLProxyProtocol all -SSLv3 -TLSv1 -TLSv1.1
SSLPassPhraseDialog  builtin
SSLSessionCache        "shmcb:/usr/local/apache2/logs/ssl_scache(512000)"
SSLSessionCacheTimeout  300

<VirtualHost *:443>
    ServerName {{.Domain}}
    DocumentRoot /usr/local/apache2/htdocs

    SSLEngine on
    SSLCertificateFile /usr/local/apache2/conf/certs/fullchain.pem
    SSLCertificateKeyFile /usr/local/apache2/conf/certs/privkey.pem

    <Directory /usr/local/apache2/htdocs>
        Options Indexes FollowSymLinks
        AllowOverride All
        Require all granted
    </Directory>
</VirtualHost>
`))

// certFiles are the certbot outputs installed into the cert mount.
var certFiles = []string{"fullchain.pem", "privkey.pem"}

// Acquire requests a certificate for cfg.Domain using certbot's standalone
// challenge and installs it into the cert mount. The web container is stopped
// first so port 80 is free for the challenge. On failure the caller is
// expected to continue HTTP-only.
func Acquire(ctx context.Context, r runner.Runner, cfg *config.Config, out io.Writer) error {
	if cfg.Domain == "" {
		return fmt.Errorf("cert: domain is required")
	}

	fmt.Fprintf(out, "Obtaining Let's Encrypt certificate for %s...\n", cfg.Domain)
	fmt.Fprintln(out, "Note: ensure the domain points to this server's IP address")

	// Free port 80 for the standalone challenge; the container may not be
	// running yet.
	_ = stack.Stop(ctx, r, cfg.Web.Container)

	err := r.Run(ctx, "certbot", "certonly", "--standalone",
		"--non-interactive",
		"--agree-tos",
		"--email", cfg.Email,
		"-d", cfg.Domain,
		"--preferred-challenges", "http")
	if err != nil {
		return fmt.Errorf("cert: certbot certonly for %s: %w", cfg.Domain, err)
	}

	if err := InstallMaterial(cfg.Domain, cfg.Web.CertDir); err != nil {
		return err
	}
	if err := WriteSSLConf(cfg.Domain, cfg.Web.SSLConf); err != nil {
		return err
	}
	fmt.Fprintf(out, "SSL certificate installed for %s\n", cfg.Domain)
	return nil
}

// InstallMaterial copies fullchain.pem and privkey.pem from certbot's live
// directory into certDir with mode 0644.
func InstallMaterial(domain, certDir string) error {
	liveDir := filepath.Join(LiveDir, domain)
	if _, err := os.Stat(liveDir); err != nil {
		return fmt.Errorf("cert: certificate directory %s: %w", liveDir, err)
	}
	if err := os.MkdirAll(certDir, 0o755); err != nil {
		return fmt.Errorf("cert: create %s: %w", certDir, err)
	}
	for _, name := range certFiles {
		data, err := os.ReadFile(filepath.Join(liveDir, name))
		if err != nil {
			return fmt.Errorf("cert: read %s for %s: %w", name, domain, err)
		}
		// certbot live files are symlinks; copying resolves them for the
		// container bind mount.
		if err := os.WriteFile(filepath.Join(certDir, name), data, 0o644); err != nil {
			return fmt.Errorf("cert: install %s: %w", name, err)
		}
	}
	return nil
}

// WriteSSLConf renders the Apache SSL vhost configuration for the domain.
func WriteSSLConf(domain, path string) error {
	var sb strings.Builder
	if err := sslConfTemplate.Execute(&sb, struct{ Domain string }{domain}); err != nil {
		return fmt.Errorf("cert: render ssl config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cert: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("cert: write %s: %w", path, err)
	}
	return nil
}

// Installed reports whether certificate material is present in certDir.
func Installed(certDir string) bool {
	for _, name := range certFiles {
		if _, err := os.Stat(filepath.Join(certDir, name)); err != nil {
			return false
		}
	}
	return true
}

// Renew runs certbot renew and, when the installed material actually
// changed, reinstalls it and restarts the web container. Returns whether a
// restart happened.
func Renew(ctx context.Context, r runner.Runner, cfg *config.Config, out io.Writer) (bool, error) {
	if cfg.Domain == "" {
		return false, fmt.Errorf("cert: no domain configured")
	}

	before, err := materialDigest(cfg.Web.CertDir)
	if err != nil {
		return false, err
	}

	if err := r.Run(ctx, "certbot", "renew", "--quiet"); err != nil {
		return false, fmt.Errorf("cert: certbot renew: %w", err)
	}

	if err := InstallMaterial(cfg.Domain, cfg.Web.CertDir); err != nil {
		return false, err
	}

	after, err := materialDigest(cfg.Web.CertDir)
	if err != nil {
		return false, err
	}
	if before == after {
		fmt.Fprintln(out, "Certificate unchanged; no restart needed")
		return false, nil
	}

	fmt.Fprintln(out, "Certificate renewed; restarting web container")
	if err := stack.Restart(ctx, r, cfg.Web.Container); err != nil {
		return false, fmt.Errorf("cert: restart after renewal: %w", err)
	}
	return true, nil
}

// materialDigest hashes the installed cert files. Missing files hash as empty.
func materialDigest(certDir string) (string, error) {
	h := sha256.New()
	for _, name := range certFiles {
		data, err := os.ReadFile(filepath.Join(certDir, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("cert: digest %s: %w", name, err)
		}
		h.Write(data)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
