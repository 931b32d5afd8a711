package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"

	"github.com/TobiSchelling/heartbeat/internal/database"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// InsightsPath is where insights are posted and listed.
const InsightsPath = "/api/analytics/insights"

// Server is the local analytics receiver.
type Server struct {
	db     *database.DB
	token  string
	pages  map[string]*template.Template
	engine *gin.Engine
	log    *zap.Logger
}

// New creates a new Server. When token is empty any bearer credential is
// accepted.
func New(db *database.DB, token string, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	funcMap := template.FuncMap{
		"markdown":       renderMarkdown,
		"formatReceived": database.FormatReceived,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "insight.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))

	s := &Server{db: db, token: token, pages: pages, engine: engine, log: log}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.engine.StaticFS("/static", http.FS(staticSub))

	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/insights/:id", s.handleInsight)
	s.engine.GET("/insights/:id/chart.png", s.handleChart)
	s.engine.GET("/feed.rss", s.handleFeed)

	api := s.engine.Group(InsightsPath, requireBearer(s.token))
	api.POST("", s.handlePostInsight)
	api.GET("", s.handleListInsights)
}

func (s *Server) handleHealth(c *gin.Context) {
	if _, err := s.db.GetStats(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) render(c *gin.Context, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		s.log.Error("template not found", zap.String("template", name))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.log.Error("rendering template", zap.String("template", name), zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve runs the receiver on addr until ctx is cancelled.
func Serve(ctx context.Context, db *database.DB, addr, token string, log *zap.Logger) error {
	srv, err := New(db, token, log)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.log.Info("receiver listening", zap.String("url", "http://"+addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.log.Info("receiver shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	}
}
