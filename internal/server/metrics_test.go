package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRoute(t *testing.T) {
	cases := map[string]string{
		"/":                                      "/",
		"/views/rdv":                             "/views/rdv",
		"/dossiers/new":                          "/dossiers/new",
		"/dossiers":                              "/dossiers",
		"/dossiers/abc123/status":                "/dossiers/:id/status",
		"/dossiers/abc123/attachments/x9":        "/dossiers/:id/attachments/:attachmentID",
		"/dossiers/abc123/attachments/x9/delete": "/dossiers/:id/attachments/:attachmentID/delete",
		"/static/app.css":                        "/static",
	}

	for in, want := range cases {
		assert.Equal(t, want, normalizeRoute(in), in)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.create(t, "Voirie")

	f.do(t, httptest.NewRequest(http.MethodGet, "/views/incoming", nil))

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `mairie_dossiers_active{status="NOUVEAU"} 1`)
	assert.Contains(t, body, `mairie_dossiers_archived 0`)
	assert.Contains(t, body, `mairie_http_requests_total{method="GET",route="/views/incoming",status="200"} 1`)
}
