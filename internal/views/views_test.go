package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mairie/pkg/types"
)

var paris = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		panic(err)
	}
	return loc
}()

var now = time.Date(2024, time.March, 13, 10, 0, 0, 0, paris)

func dossier(id string, status types.DossierStatus, created time.Time) types.Dossier {
	return types.Dossier{
		ID:        id,
		Service:   "Urbanisme",
		Status:    status,
		CreatedAt: created.UnixMilli(),
		UpdatedAt: created.UnixMilli(),
	}
}

func ids(dossiers []types.Dossier) []string {
	out := make([]string, len(dossiers))
	for i, d := range dossiers {
		out[i] = d.ID
	}
	return out
}

func TestSortedNewestFirstIsStable(t *testing.T) {
	same := now.Add(-time.Hour)
	in := []types.Dossier{
		dossier("old", types.DossierStatusNouveau, now.Add(-48*time.Hour)),
		dossier("tie1", types.DossierStatusNouveau, same),
		dossier("new", types.DossierStatusNouveau, now),
		dossier("tie2", types.DossierStatusNouveau, same),
		dossier("tie3", types.DossierStatusNouveau, same),
	}

	got := SortedNewestFirst(in)
	assert.Equal(t, []string{"new", "tie1", "tie2", "tie3", "old"}, ids(got))

	// input untouched
	assert.Equal(t, []string{"old", "tie1", "new", "tie2", "tie3"}, ids(in))
}

func TestByStatusSkipsArchived(t *testing.T) {
	archived := dossier("archived", types.DossierStatusRDV, now)
	archived.IsArchived = true

	in := []types.Dossier{
		dossier("rdv1", types.DossierStatusRDV, now),
		dossier("new", types.DossierStatusNouveau, now),
		archived,
		dossier("rdv2", types.DossierStatusRDV, now),
	}

	assert.Equal(t, []string{"rdv1", "rdv2"}, ids(ByStatus(in, types.DossierStatusRDV)))
	assert.Empty(t, ByStatus(in, types.DossierStatusCloture))
}

func TestWeeklyRecap(t *testing.T) {
	monday := time.Date(2024, time.March, 11, 0, 0, 0, 0, paris)

	updatedThisWeek := dossier("old-updated", types.DossierStatusCloture, monday.AddDate(0, 0, -10))
	updatedThisWeek.UpdatedAt = monday.Add(time.Hour).UnixMilli()
	updatedThisWeek.IsArchived = true

	in := []types.Dossier{
		dossier("monday", types.DossierStatusNouveau, monday),
		dossier("last-sunday", types.DossierStatusNouveau, monday.Add(-time.Second)),
		updatedThisWeek,
		dossier("next-monday", types.DossierStatusNouveau, monday.AddDate(0, 0, 7)),
	}

	assert.Equal(t, []string{"monday", "old-updated"}, ids(WeeklyRecap(in, now)))
}

func TestHistory(t *testing.T) {
	a := dossier("a", types.DossierStatusNouveau, now)
	a.IsArchived = true
	b := dossier("b", types.DossierStatusCloture, now)

	assert.Equal(t, []string{"a"}, ids(History([]types.Dossier{a, b})))
}

func TestDashboardAggregateServices(t *testing.T) {
	in := []types.Dossier{
		{ID: "1", Service: "Urbanisme", Status: types.DossierStatusNouveau},
		{ID: "2", Service: " Urbanisme ", Status: types.DossierStatusRDV},
		{ID: "3", Service: "", Status: types.DossierStatusRDV},
	}

	dash := DashboardAggregate(in)
	assert.Equal(t, map[string]int{"Urbanisme": 2, "Non spécifié": 1}, dash.ByService)
	assert.Equal(t, 3, dash.Active)
	assert.Equal(t, 3, dash.Total)
}

func TestDashboardAggregateStatuses(t *testing.T) {
	archived := types.Dossier{ID: "x", Service: "Police Municipale", Status: types.DossierStatusCloture, IsArchived: true}
	in := []types.Dossier{
		{ID: "1", Service: "urbanisme", Status: types.DossierStatusTransmis},
		{ID: "2", Service: "Urbanisme", Status: types.DossierStatusTransmis},
		{ID: "3", Service: "\t ", Status: types.DossierStatusNouveau},
		archived,
	}

	dash := DashboardAggregate(in)
	assert.Equal(t, map[types.DossierStatus]int{
		types.DossierStatusNouveau:  1,
		types.DossierStatusTransmis: 2,
		types.DossierStatusRDV:      0,
		types.DossierStatusCloture:  0,
	}, dash.ByStatus)
	assert.Equal(t, map[string]int{"urbanisme": 1, "Urbanisme": 1, UnspecifiedService: 1}, dash.ByService)
	assert.Equal(t, 1, dash.Archived)
	assert.Equal(t, 3, dash.Active)

	breakdown := dash.StatusBreakdown()
	require.Len(t, breakdown, 4)
	assert.Equal(t, types.DossierStatusNouveau, breakdown[0].Status)
	assert.Equal(t, types.DossierStatusCloture, breakdown[3].Status)

	services := dash.ServiceBreakdown()
	assert.Equal(t, []ServiceCount{
		{Service: UnspecifiedService, Count: 1},
		{Service: "Urbanisme", Count: 1},
		{Service: "urbanisme", Count: 1},
	}, services)
}

func TestDashboardAggregateEmpty(t *testing.T) {
	dash := DashboardAggregate(nil)
	assert.Len(t, dash.ByStatus, 4)
	assert.Empty(t, dash.ByService)
	assert.Zero(t, dash.Total)
}

func TestProject(t *testing.T) {
	archived := dossier("hist", types.DossierStatusCloture, now.AddDate(0, 0, -20))
	archived.IsArchived = true

	in := []types.Dossier{
		dossier("n1", types.DossierStatusNouveau, now.Add(-2*time.Hour)),
		archived,
		dossier("t1", types.DossierStatusTransmis, now.Add(-time.Hour)),
		dossier("n2", types.DossierStatusNouveau, now),
	}

	assert.Equal(t, []string{"n2", "n1"}, ids(Project(ViewIncoming, in, now)))
	assert.Equal(t, []string{"t1"}, ids(Project(ViewTransmitted, in, now)))
	assert.Empty(t, Project(ViewRDV, in, now))
	assert.Equal(t, []string{"hist"}, ids(Project(ViewHistory, in, now)))
	assert.Equal(t, []string{"n2", "t1", "n1"}, ids(Project(ViewWeekly, in, now)))
	assert.Equal(t, []string{"n2", "t1", "n1", "hist"}, ids(Project(ViewDashboard, in, now)))
}

func TestParseView(t *testing.T) {
	v, err := ParseView(" RDV ")
	require.NoError(t, err)
	assert.Equal(t, ViewRDV, v)
	assert.Equal(t, "Dossiers : RDV", v.Title())

	_, err = ParseView("archive")
	assert.Error(t, err)

	for _, v := range AllViews() {
		assert.NotEmpty(t, v.Title())
	}
	assert.True(t, ViewHistory.ReadOnly())
	assert.False(t, ViewRDV.ReadOnly())
}
