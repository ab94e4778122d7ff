package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/bookbuild/internal/history"
	"github.com/loykin/bookbuild/internal/metrics"
)

// Router provides embeddable read-only HTTP handlers over the build
// history store.
// Endpoints:
//
//	GET {basePath}/builds?limit=N   recent builds, newest first
//	GET {basePath}/builds/latest    most recent build
//	GET {basePath}/healthz
//	GET /metrics                    Prometheus metrics
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	store    history.Querier
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
func NewRouter(store history.Querier, basePath string) *Router {
	return &Router{store: store, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted
// in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/builds", r.handleBuilds)
	group.GET("/builds/latest", r.handleLatest)
	group.GET("/healthz", r.handleHealthz)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, store history.Querier) (*http.Server, error) {
	r := NewRouter(store, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

type errorResp struct {
	Error string `json:"error"`
}

func (r *Router) handleBuilds(c *gin.Context) {
	limit := 20
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, errorResp{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	builds, err := r.store.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if builds == nil {
		builds = []history.Build{}
	}
	c.JSON(http.StatusOK, builds)
}

func (r *Router) handleLatest(c *gin.Context) {
	builds, err := r.store.Recent(c.Request.Context(), 1)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	if len(builds) == 0 {
		c.JSON(http.StatusNotFound, errorResp{Error: "no builds recorded"})
		return
	}
	c.JSON(http.StatusOK, builds[0])
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func sanitizeBase(bp string) string {
	bp = strings.TrimSpace(bp)
	if bp == "" || bp == "/" {
		return ""
	}
	if !strings.HasPrefix(bp, "/") {
		bp = "/" + bp
	}
	return strings.TrimRight(bp, "/")
}
