package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"mairie/internal/dossier"
	"mairie/internal/storage"
	"mairie/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/sirupsen/logrus"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

type Service struct {
	logger    logrus.FieldLogger
	config    *types.Config
	manager   *dossier.Manager
	archive   *storage.SnapshotArchive
	templates *template.Template
	metrics   *metrics

	cookie *securecookie.SecureCookie

	server *http.Server
}

// New wires the front office UI. archive may be nil when no snapshot bucket
// is configured.
func New(
	config *types.Config,
	logger logrus.FieldLogger,
	manager *dossier.Manager,
	archive *storage.SnapshotArchive,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie block key: %w", err)
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}

	cookie := securecookie.New(hashKey, blockKey)
	cookie.MaxAge(config.SessionMaxAgeSec)

	s := &Service{
		logger:  logger,
		config:  config,
		manager: manager,
		archive: archive,
		cookie:  cookie,
		metrics: newMetrics(manager),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	if err := s.buildRouter(mux); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mostly for httptest.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) error {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", s.metrics.handler(), http.MethodGet)
	r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
	r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
	r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)

		r.HandleFunc("/", s.handleDashboard, http.MethodGet)
		r.HandleFunc("/views/:view", s.handleView, http.MethodGet)

		r.HandleFunc("/dossiers/new", s.handleGetNewDossier, http.MethodGet)
		r.HandleFunc("/dossiers", s.handlePostDossier, http.MethodPost)
		r.HandleFunc("/dossiers/:id/status", s.handlePostStatus, http.MethodPost)
		r.HandleFunc("/dossiers/:id/rdv", s.handlePostRdv, http.MethodPost)
		r.HandleFunc("/dossiers/:id/delete", s.handlePostDelete, http.MethodPost)
		r.HandleFunc("/dossiers/:id/attachments/:attachmentID", s.handleGetAttachment, http.MethodGet)
		r.HandleFunc("/dossiers/:id/attachments/:attachmentID/delete", s.handlePostRemoveAttachment, http.MethodPost)

		r.HandleFunc("/transfer", s.handleGetTransfer, http.MethodGet)
		r.HandleFunc("/export", s.handleGetExport, http.MethodGet)
		r.HandleFunc("/import", s.handlePostImport, http.MethodPost)
		r.HandleFunc("/snapshots/push", s.handlePostSnapshotPush, http.MethodPost)
		r.HandleFunc("/snapshots/restore", s.handlePostSnapshotRestore, http.MethodPost)
	})

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		return fmt.Errorf("failed to mount static assets: %w", err)
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)

	return nil
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (s *Service) loginFromContext(ctx context.Context) (string, error) {
	loginID, ok := ctx.Value(contextKeyLoginID).(string)
	if !ok {
		return "", fmt.Errorf("login id not found in context")
	}
	return loginID, nil
}
