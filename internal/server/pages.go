package server

import (
	"net/http"
	"net/url"

	"mairie/internal/utils"
	"mairie/internal/views"
	"mairie/pkg/types"
)

const dateLayout = "02/01/2006 15:04"

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dossiers := s.manager.Dossiers()
	dash := views.DashboardAggregate(dossiers)

	data := &types.DashboardPageData{
		BasePageData: s.basePage(r, views.ViewDashboard),
		Active:       dash.Active,
		Archived:     dash.Archived,
		Total:        dash.Total,
	}

	for _, sc := range dash.StatusBreakdown() {
		data.Statuses = append(data.Statuses, types.StatusCard{
			Label: sc.Status.String(),
			Code:  sc.Status.Code(),
			Count: sc.Count,
			Href:  viewPath(viewForStatus(sc.Status)),
		})
	}

	for _, sc := range dash.ServiceBreakdown() {
		percent := 0
		if dash.Active > 0 {
			percent = sc.Count * 100 / dash.Active
		}
		data.Services = append(data.Services, types.ServiceRow{
			Service: sc.Service,
			Count:   sc.Count,
			Percent: percent,
		})
	}

	recent := views.Project(views.ViewIncoming, dossiers, s.manager.Now())
	if len(recent) > 5 {
		recent = recent[:5]
	}
	data.Recent = s.cards(recent, views.ViewIncoming)
	for i := range data.Recent {
		data.Recent[i].Return = "/"
	}

	if err := s.renderTemplate(w, r, "page.dashboard", data); err != nil {
		s.logger.WithError(err).Error("failed to render dashboard page")
		s.internalServerError(w)
	}
}

func (s *Service) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := views.ParseView(r.PathValue("view"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if view == views.ViewDashboard {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	listed := views.Project(view, s.manager.Dossiers(), s.manager.Now())

	data := &types.ListPageData{
		BasePageData: s.basePage(r, view),
		View:         string(view),
		Dossiers:     s.cards(listed, view),
		Empty:        "Aucun dossier dans cette catégorie.",
	}

	if err := s.renderTemplate(w, r, "page.list", data); err != nil {
		s.logger.WithError(err).WithField("view", view).Error("failed to render list page")
		s.internalServerError(w)
	}
}

func (s *Service) handleGetNewDossier(w http.ResponseWriter, r *http.Request) {
	data := &types.NewDossierPageData{
		BasePageData: types.BasePageData{
			Title:  "Nouveau dossier",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
			Active: "/dossiers/new",
		},
	}

	if err := s.renderTemplate(w, r, "page.new-dossier", data); err != nil {
		s.logger.WithError(err).Error("failed to render new dossier page")
		s.internalServerError(w)
	}
}

func (s *Service) basePage(r *http.Request, v views.View) types.BasePageData {
	return types.BasePageData{
		Title:  v.Title(),
		Notice: r.URL.Query().Get("notice"),
		Error:  r.URL.Query().Get("error"),
		Active: viewPath(v),
	}
}

func (s *Service) cards(dossiers []types.Dossier, v views.View) []types.DossierCard {
	loc := s.manager.Now().Location()

	cards := make([]types.DossierCard, 0, len(dossiers))
	for _, d := range dossiers {
		card := types.DossierCard{
			ID:          d.ID,
			FullName:    d.FullName(),
			Email:       d.Email,
			Object:      d.Object,
			Service:     views.ServiceKey(d.Service),
			Description: d.Description,
			Status:      d.Status.String(),
			StatusCode:  d.Status.Code(),
			RdvDetails:  d.RdvDetails,
			ShowRdv:     d.Status == types.DossierStatusRDV,
			CreatedAt:   utils.UnixMilliTime(d.CreatedAt, loc).Format(dateLayout),
			UpdatedAt:   utils.UnixMilliTime(d.UpdatedAt, loc).Format(dateLayout),
			IsArchived:  d.IsArchived,
			ReadOnly:    v.ReadOnly(),
			Return:      viewPath(v),
		}

		for _, status := range types.AllDossierStatuses() {
			card.Options = append(card.Options, types.StatusOption{
				Value:    status.Code(),
				Label:    status.String(),
				Selected: status == d.Status,
			})
		}

		for _, att := range d.Attachments {
			card.Attachments = append(card.Attachments, types.AttachmentLink{
				ID:       att.ID,
				Name:     att.Name,
				MimeType: att.MimeType,
				Href:     "/dossiers/" + url.PathEscape(d.ID) + "/attachments/" + url.PathEscape(att.ID),
			})
		}

		cards = append(cards, card)
	}

	return cards
}

func viewForStatus(status types.DossierStatus) views.View {
	for _, v := range views.AllViews() {
		if vs, ok := v.Status(); ok && vs == status {
			return v
		}
	}
	return views.ViewDashboard
}
