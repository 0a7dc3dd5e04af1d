// Package stack provisions and manages the LAMP containers via podman.
package stack

import (
	"fmt"

	"github.com/avelichko/lampctl/internal/config"
)

// ContainerSpec describes one container of the stack.
type ContainerSpec struct {
	Name    string
	Image   string
	Network string
	Ports   []string // "host:container"
	Volumes []string // "src:dst[:opts]"
	Env     []string // "KEY=value", order preserved
	Command []string // optional command override
}

// RunArgs builds the podman run argument list for the spec.
func (s ContainerSpec) RunArgs() []string {
	args := []string{"run", "-d", "--name", s.Name, "--network", s.Network}
	for _, e := range s.Env {
		args = append(args, "-e", e)
	}
	for _, p := range s.Ports {
		args = append(args, "-p", p)
	}
	for _, v := range s.Volumes {
		args = append(args, "-v", v)
	}
	args = append(args, s.Image)
	args = append(args, s.Command...)
	return args
}

// MySQLSpec builds the database container spec.
func MySQLSpec(cfg *config.Config) ContainerSpec {
	return ContainerSpec{
		Name:    cfg.MySQL.Container,
		Image:   cfg.MySQL.Image,
		Network: cfg.Network,
		Env: []string{
			"MYSQL_ROOT_PASSWORD=" + cfg.MySQL.RootPassword,
			"MYSQL_USER=" + cfg.MySQL.User,
			"MYSQL_PASSWORD=" + cfg.MySQL.Password,
			"MYSQL_DATABASE=" + cfg.MySQL.Database,
		},
		Ports:   []string{fmt.Sprintf("%d:3306", cfg.MySQL.Port)},
		Volumes: []string{cfg.MySQL.Volume + ":/var/lib/mysql"},
	}
}

// WebSpec builds the Apache container spec. When ssl is true the cert
// directory and SSL vhost config are mounted and the container entrypoint
// appends the SSL include to httpd.conf before starting.
func WebSpec(cfg *config.Config, ssl bool) ContainerSpec {
	spec := ContainerSpec{
		Name:    cfg.Web.Container,
		Image:   cfg.Web.Image,
		Network: cfg.Network,
		Ports: []string{
			fmt.Sprintf("%d:80", cfg.Web.HTTPPort),
			fmt.Sprintf("%d:443", cfg.Web.HTTPSPort),
		},
		Volumes: []string{cfg.Web.Root + ":/usr/local/apache2/htdocs:Z"},
	}
	if ssl {
		spec.Volumes = append(spec.Volumes,
			cfg.Web.CertDir+":/usr/local/apache2/conf/certs:Z",
			cfg.Web.SSLConf+":/usr/local/apache2/conf/extra/httpd-ssl.conf:Z",
		)
		spec.Command = []string{
			"sh", "-c",
			"echo 'Include conf/extra/httpd-ssl.conf' >> /usr/local/apache2/conf/httpd.conf && httpd-foreground",
		}
	}
	return spec
}

// AdminSpec builds the phpMyAdmin container spec.
func AdminSpec(cfg *config.Config) ContainerSpec {
	return ContainerSpec{
		Name:    cfg.Admin.Container,
		Image:   cfg.Admin.Image,
		Network: cfg.Network,
		Env:     []string{"PMA_HOST=" + cfg.MySQL.Container},
		Ports:   []string{fmt.Sprintf("%d:80", cfg.Admin.Port)},
	}
}

// Specs returns the three stack specs in launch order.
func Specs(cfg *config.Config, ssl bool) []ContainerSpec {
	return []ContainerSpec{MySQLSpec(cfg), WebSpec(cfg, ssl), AdminSpec(cfg)}
}
