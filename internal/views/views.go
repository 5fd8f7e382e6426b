// Package views derives the read-only lists and counts shown to the front
// office. Nothing here mutates its input.
package views

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"mairie/internal/week"
	"mairie/pkg/types"
)

// UnspecifiedService buckets dossiers whose service is blank.
const UnspecifiedService = "Non spécifié"

type View string

const (
	ViewDashboard   View = "dashboard"
	ViewIncoming    View = "incoming"
	ViewTransmitted View = "transmitted"
	ViewRDV         View = "rdv"
	ViewClosed      View = "closed"
	ViewWeekly      View = "weekly"
	ViewHistory     View = "history"
)

var viewTitles = map[View]string{
	ViewDashboard:   "Tableau de Bord",
	ViewIncoming:    "Nouveaux Dossiers (Entrants)",
	ViewTransmitted: "Dossiers : Transmise",
	ViewRDV:         "Dossiers : RDV",
	ViewClosed:      "Dossiers : Clôturé",
	ViewWeekly:      "Récapitulatif de la semaine",
	ViewHistory:     "Archives",
}

// AllViews returns the views in navigation order.
func AllViews() []View {
	return []View{ViewDashboard, ViewIncoming, ViewTransmitted, ViewRDV, ViewClosed, ViewWeekly, ViewHistory}
}

func ParseView(v string) (View, error) {
	view := View(strings.ToLower(strings.TrimSpace(v)))
	if _, ok := viewTitles[view]; !ok {
		return "", fmt.Errorf("unknown view %q", v)
	}
	return view, nil
}

func (v View) Title() string {
	return viewTitles[v]
}

// Status is the workflow status a list view is bucketed on, if any.
func (v View) Status() (types.DossierStatus, bool) {
	switch v {
	case ViewIncoming:
		return types.DossierStatusNouveau, true
	case ViewTransmitted:
		return types.DossierStatusTransmis, true
	case ViewRDV:
		return types.DossierStatusRDV, true
	case ViewClosed:
		return types.DossierStatusCloture, true
	}
	return "", false
}

// ReadOnly reports whether dossiers shown in v may not be acted upon.
func (v View) ReadOnly() bool {
	return v == ViewHistory
}

// Project returns what the screen for v lists: the collection newest first,
// filtered for the view.
func Project(v View, dossiers []types.Dossier, now time.Time) []types.Dossier {
	sorted := SortedNewestFirst(dossiers)

	if status, ok := v.Status(); ok {
		return ByStatus(sorted, status)
	}

	switch v {
	case ViewWeekly:
		return WeeklyRecap(sorted, now)
	case ViewHistory:
		return History(sorted)
	}

	return sorted
}

// SortedNewestFirst returns a copy ordered by CreatedAt descending. Equal
// timestamps keep their relative order.
func SortedNewestFirst(dossiers []types.Dossier) []types.Dossier {
	out := slices.Clone(dossiers)
	slices.SortStableFunc(out, func(a, b types.Dossier) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
	return out
}

// ByStatus keeps live (non archived) dossiers in status.
func ByStatus(dossiers []types.Dossier, status types.DossierStatus) []types.Dossier {
	return filter(dossiers, func(d types.Dossier) bool {
		return !d.IsArchived && d.Status == status
	})
}

// WeeklyRecap keeps dossiers created or updated during now's week,
// archived ones included.
func WeeklyRecap(dossiers []types.Dossier, now time.Time) []types.Dossier {
	return filter(dossiers, func(d types.Dossier) bool {
		return week.IsInCurrentWeek(d.CreatedAt, now) || week.IsInCurrentWeek(d.UpdatedAt, now)
	})
}

func History(dossiers []types.Dossier) []types.Dossier {
	return filter(dossiers, func(d types.Dossier) bool {
		return d.IsArchived
	})
}

func filter(dossiers []types.Dossier, keep func(types.Dossier) bool) []types.Dossier {
	out := make([]types.Dossier, 0, len(dossiers))
	for _, d := range dossiers {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

type StatusCount struct {
	Status types.DossierStatus
	Count  int
}

type ServiceCount struct {
	Service string
	Count   int
}

// Dashboard counts live dossiers. ByStatus always holds the four statuses.
type Dashboard struct {
	ByStatus  map[types.DossierStatus]int
	ByService map[string]int
	Active    int
	Archived  int
	Total     int
}

func DashboardAggregate(dossiers []types.Dossier) Dashboard {
	dash := Dashboard{
		ByStatus:  make(map[types.DossierStatus]int, 4),
		ByService: make(map[string]int),
		Total:     len(dossiers),
	}

	for _, status := range types.AllDossierStatuses() {
		dash.ByStatus[status] = 0
	}

	for _, d := range dossiers {
		if d.IsArchived {
			dash.Archived++
			continue
		}

		dash.Active++
		if d.Status.Valid() {
			dash.ByStatus[d.Status]++
		}
		dash.ByService[ServiceKey(d.Service)]++
	}

	return dash
}

// ServiceKey trims a free-text service for grouping. Case is kept and a
// blank service maps to UnspecifiedService.
func ServiceKey(service string) string {
	key := strings.TrimSpace(service)
	if key == "" {
		return UnspecifiedService
	}
	return key
}

// StatusBreakdown lists the status counts in workflow order.
func (d Dashboard) StatusBreakdown() []StatusCount {
	out := make([]StatusCount, 0, len(d.ByStatus))
	for _, status := range types.AllDossierStatuses() {
		out = append(out, StatusCount{Status: status, Count: d.ByStatus[status]})
	}
	return out
}

// ServiceBreakdown lists services by count descending, then by name.
func (d Dashboard) ServiceBreakdown() []ServiceCount {
	out := make([]ServiceCount, 0, len(d.ByService))
	for service, count := range d.ByService {
		out = append(out, ServiceCount{Service: service, Count: count})
	}

	slices.SortFunc(out, func(a, b ServiceCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Service, b.Service)
	})

	return out
}
