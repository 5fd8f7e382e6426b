package server

import (
	"net/http"

	"mairie/internal/views"
	"mairie/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	loginID, _ := s.loginFromContext(r.Context())

	if setter, ok := data.(types.NavbarDataSetter); ok {
		setter.SetNavbarData(s.navbar(loginID))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}

func (s *Service) navbar(loginID string) types.NavbarData {
	nav := types.NavbarData{
		IsAuthenticated: loginID != "",
		LoginID:         loginID,
	}
	if !nav.IsAuthenticated {
		return nav
	}

	dossiers := s.manager.Dossiers()
	now := s.manager.Now()

	for _, v := range views.AllViews() {
		link := types.NavLink{Label: v.Title(), Href: viewPath(v)}
		if v != views.ViewDashboard {
			link.Count = len(views.Project(v, dossiers, now))
		}
		nav.Links = append(nav.Links, link)
	}

	return nav
}

func viewPath(v views.View) string {
	if v == views.ViewDashboard {
		return "/"
	}
	return "/views/" + string(v)
}
