// Package server exposes QCL's compiler as an HTTP service: a synchronous
// compile endpoint for small programs, and an async job endpoint for
// callers that would rather poll than hold a connection open.
package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qclabs/qcl/internal/jobstore"
	"github.com/qclabs/qcl/internal/logger"
	"github.com/qclabs/qcl/internal/server/router"
	"github.com/qclabs/qcl"
)

// Server bundles the HTTP router with the collaborators its handlers need.
type Server struct {
	Router *router.Router
	Logger *logger.Logger
	Jobs   jobstore.Store
}

// Options configures a new Server.
type Options struct {
	Logger          *logger.Logger
	BasePath        string
	CORSAllowOrigin string
}

// New builds a Server with all compile-service routes registered.
func New(opts Options) *Server {
	l := opts.Logger
	if l == nil {
		l = logger.NewLogger(logger.LoggerOptions{})
	}

	s := &Server{
		Logger: l,
		Jobs:   jobstore.New(),
	}
	s.Router = router.NewRouter(router.RouterOptions{
		Logger:          l,
		BasePath:        opts.BasePath,
		CORSAllowOrigin: opts.CORSAllowOrigin,
	})
	s.Router.SetRoutes(s.routes())
	return s
}

// Start binds and serves; blocks until the listener errors or is shut down.
func (s *Server) Start(port int, localOnly bool) error {
	s.Logger.Info().Int("port", port).Msg("qcl server starting")
	return s.Router.Start(port, localOnly)
}

func (s *Server) routes() []*router.Route {
	return []*router.Route{
		{Name: "health", Method: http.MethodGet, Pattern: "/health", HandlerFunc: s.Health},
		{Name: "version", Method: http.MethodGet, Pattern: "/version", HandlerFunc: s.Version},
		{Name: "capabilities", Method: http.MethodGet, Pattern: "/capabilities", HandlerFunc: s.Capabilities},
		{Name: "compile", Method: http.MethodPost, Pattern: "/compile", HandlerFunc: s.Compile},
		{Name: "jobs.submit", Method: http.MethodPost, Pattern: "/jobs", HandlerFunc: s.SubmitJob},
		{Name: "jobs.get", Method: http.MethodGet, Pattern: "/jobs/:id", HandlerFunc: s.GetJob},
	}
}

// CompileRequest is the body of POST /compile and POST /jobs.
type CompileRequest struct {
	Source   string `json:"source"`
	Optimize *bool  `json:"optimize"`
}

// CompileResponse is the body of a successful POST /compile, and the
// terminal state of a succeeded job.
type CompileResponse struct {
	Qasm  string    `json:"qasm"`
	Stats qcl.Stats `json:"stats"`
}

func (req CompileRequest) optimizeEnabled() bool {
	if req.Optimize == nil {
		return true
	}
	return *req.Optimize
}

// Health reports liveness.
func (s *Server) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Version reports the compiler's semantic version.
func (s *Server) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": qcl.Version()})
}

// Capabilities reports the compiler build's feature flags.
func (s *Server) Capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"capabilities": qcl.Capabilities()})
}

// Compile compiles source synchronously and returns QASM plus stats.
func (s *Server) Compile(c *gin.Context) {
	l := s.contextLogger(c)

	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Error().Err(err).Msg("binding compile request failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := qcl.CompileWithStats(req.Source, req.optimizeEnabled())
	if err != nil {
		l.Debug().Err(err).Msg("compile failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, CompileResponse{Qasm: result.Qasm, Stats: result.Stats})
}

// SubmitJob queues a compile and returns its job id immediately.
func (s *Server) SubmitJob(c *gin.Context) {
	l := s.contextLogger(c)

	var req CompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Error().Err(err).Msg("binding job request failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := s.Jobs.Submit(req.Source)
	go s.runJob(id, req.optimizeEnabled())

	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

func (s *Server) runJob(id string, optimizeEnabled bool) {
	if err := s.Jobs.MarkRunning(id); err != nil {
		s.Logger.Error().Err(err).Str("job", id).Msg("marking job running failed")
		return
	}
	job, err := s.Jobs.Get(id)
	if err != nil {
		s.Logger.Error().Err(err).Str("job", id).Msg("job vanished before compile")
		return
	}
	result, err := qcl.CompileWithStats(job.Source, optimizeEnabled)
	if err != nil {
		_ = s.Jobs.Fail(id, err.Error())
		return
	}
	_ = s.Jobs.Complete(id, result.Qasm)
}

// GetJob returns a job's current status, and its QASM/error once terminal.
func (s *Server) GetJob(c *gin.Context) {
	id := c.Param("id")
	job, err := s.Jobs.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("job %q not found", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     job.ID,
		"status": job.Status,
		"qasm":   job.Qasm,
		"error":  job.Error,
	})
}

func (s *Server) contextLogger(c *gin.Context) *logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*logger.Logger); ok {
			return l
		}
	}
	return s.Logger
}
