package dashboard

import (
	"net/http"

	"github.com/avelichko/lampctl/internal/stack"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/", handleIndex(opts))
	router.GET("/api/status", handleStatus(opts))
	router.GET("/api/backups", handleBackups(opts))
	router.GET("/api/health", handleHealth())
}

func containerNames(opts StartOpts) []string {
	names := make([]string, 0, 3)
	for _, spec := range stack.Specs(opts.Config, false) {
		names = append(names, spec.Name)
	}
	return names
}

func handleIndex(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := stack.Status(c.Request.Context(), opts.Runner, containerNames(opts))
		if err != nil {
			c.HTML(http.StatusInternalServerError, "index.html", gin.H{"error": err.Error()})
			return
		}
		data := gin.H{
			"domain":     opts.Config.Domain,
			"containers": statuses,
		}
		if opts.Catalog != nil {
			if runs, err := opts.Catalog.Recent(10); err == nil {
				data["runs"] = runs
			}
		}
		c.HTML(http.StatusOK, "index.html", data)
	}
}

func handleStatus(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := stack.Status(c.Request.Context(), opts.Runner, containerNames(opts))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"containers": statuses})
	}
}

func handleBackups(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Catalog == nil {
			c.JSON(http.StatusOK, gin.H{"runs": []any{}})
			return
		}
		runs, err := opts.Catalog.Recent(50)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
