package stack

import (
	"context"
	"fmt"
	"strings"

	"github.com/avelichko/lampctl/internal/runner"
)

// ContainerStatus describes one container as reported by podman ps.
type ContainerStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

// Status returns the status of the named containers. Containers unknown to
// podman are reported with status "not created".
func Status(ctx context.Context, r runner.Runner, names []string) ([]ContainerStatus, error) {
	out, err := r.Output(ctx, "podman", "ps", "--all", "--format", "{{.Names}}\t{{.Status}}")
	if err != nil {
		return nil, fmt.Errorf("stack: list containers: %w", err)
	}

	known := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		name, status, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if !ok {
			continue
		}
		known[name] = status
	}

	statuses := make([]ContainerStatus, 0, len(names))
	for _, name := range names {
		status, ok := known[name]
		if !ok {
			statuses = append(statuses, ContainerStatus{Name: name, Status: "not created"})
			continue
		}
		statuses = append(statuses, ContainerStatus{
			Name:    name,
			Status:  status,
			Running: strings.HasPrefix(status, "Up"),
		})
	}
	return statuses, nil
}
