package seed

import (
	"context"
	"fmt"
	"time"

	"mairie/internal/dossier"
	"mairie/internal/store"
	"mairie/internal/utils"
	"mairie/internal/week"
	"mairie/pkg/types"
)

type sampleDossier struct {
	ID     string
	Fields types.DossierFields
	Status types.DossierStatus
	Rdv    string
	// WeeksAgo places the dossier in an earlier week; 0 is the current one.
	WeeksAgo int
	Age      time.Duration
}

// sampleDossiers is the source of truth for demo data. IDs are fixed so
// seeding twice never duplicates a dossier.
//
// To generate new IDs: `go run ./cmd/mairie seed --ids 3`
var sampleDossiers = []sampleDossier{
	{
		ID: "s33dnouv0001",
		Fields: types.DossierFields{
			FirstName:   "Camille",
			LastName:    "Martin",
			Email:       "camille.martin@example.com",
			Object:      "Permis de construire véranda",
			Service:     "Urbanisme",
			Description: "Demande d'information sur les délais d'instruction du permis déposé le mois dernier.",
		},
		Status: types.DossierStatusNouveau,
		Age:    2 * time.Hour,
	},
	{
		ID: "s33dnouv0002",
		Fields: types.DossierFields{
			FirstName:   "Hugo",
			LastName:    "Bernard",
			Email:       "hugo.bernard@example.com",
			Object:      "Éclairage public défaillant",
			Service:     "Services Techniques",
			Description: "Trois lampadaires éteints rue des Tilleuls depuis une semaine.",
		},
		Status: types.DossierStatusNouveau,
		Age:    30 * time.Minute,
	},
	{
		ID: "s33dtrns0001",
		Fields: types.DossierFields{
			FirstName:   "Léa",
			LastName:    "Dubois",
			Email:       "lea.dubois@example.com",
			Object:      "Inscription cantine",
			Service:     "Affaires Scolaires",
			Description: "Inscription de deux enfants à la restauration scolaire en cours d'année.",
		},
		Status: types.DossierStatusTransmis,
		Age:    5 * time.Hour,
	},
	{
		ID: "s33drdv00001",
		Fields: types.DossierFields{
			FirstName:   "Lucas",
			LastName:    "Thomas",
			Email:       "lucas.thomas@example.com",
			Object:      "Nuisances sonores",
			Service:     "Police Municipale",
			Description: "Souhaite rencontrer M. le Maire au sujet d'un bar ouvert tard le week-end.",
		},
		Status: types.DossierStatusRDV,
		Rdv:    "Mardi 14h, bureau du maire",
		Age:    time.Hour,
	},
	{
		ID: "s33dclot0001",
		Fields: types.DossierFields{
			FirstName:   "Chloé",
			LastName:    "Robert",
			Email:       "chloe.robert@example.com",
			Object:      "Acte de naissance",
			Service:     "État Civil",
			Description: "Copie intégrale demandée pour un dossier de passeport.",
		},
		Status: types.DossierStatusCloture,
		Age:    3 * time.Hour,
	},
	{
		ID: "s33dpass0001",
		Fields: types.DossierFields{
			FirstName:   "Louis",
			LastName:    "Richard",
			Email:       "louis.richard@example.com",
			Object:      "Location salle des fêtes",
			Service:     "",
			Description: "Réservation pour un mariage en juin, demande de tarif.",
		},
		Status:   types.DossierStatusCloture,
		WeeksAgo: 1,
	},
	{
		ID: "s33dpass0002",
		Fields: types.DossierFields{
			FirstName:   "Emma",
			LastName:    "Petit",
			Email:       "emma.petit@example.com",
			Object:      "Élagage arbres",
			Service:     "Espaces Verts",
			Description: "Branches d'un arbre communal qui touchent la toiture.",
		},
		Status:   types.DossierStatusTransmis,
		WeeksAgo: 3,
	},
}

// SeedDossiers adds the sample dossiers whose IDs are not already present,
// then runs the archival sweep. It returns how many were inserted and
// archived.
func SeedDossiers(ctx context.Context, m *dossier.Manager) (int, int, error) {
	now := m.Now()
	monday := week.MondayOf(now)

	current := m.Dossiers()
	present := make(map[string]bool, len(current))
	for _, d := range current {
		present[d.ID] = true
	}

	inserted := 0
	for _, sample := range sampleDossiers {
		if present[sample.ID] {
			continue
		}
		current = append(current, sample.build(now, monday))
		inserted++
	}

	if inserted > 0 {
		data, err := store.EncodeSnapshot(current, false)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to encode seed dossiers: %w", err)
		}

		if _, err := m.Import(ctx, data); err != nil {
			return 0, 0, fmt.Errorf("failed to write seed dossiers: %w", err)
		}
	}

	archived, err := m.RunArchivalSweep(ctx, now)
	if err != nil {
		return inserted, 0, err
	}

	return inserted, archived, nil
}

func (s sampleDossier) build(now, monday time.Time) types.Dossier {
	created := now.Add(-s.Age)
	if s.WeeksAgo > 0 {
		created = monday.AddDate(0, 0, -7*s.WeeksAgo).Add(10 * time.Hour)
	} else if created.Before(monday) {
		created = monday
	}

	updated := created
	if s.Status != types.DossierStatusNouveau && s.WeeksAgo == 0 {
		updated = now
	}

	return types.Dossier{
		ID:          s.ID,
		FirstName:   s.Fields.FirstName,
		LastName:    s.Fields.LastName,
		Email:       s.Fields.Email,
		Object:      s.Fields.Object,
		Service:     s.Fields.Service,
		Description: s.Fields.Description,
		Status:      s.Status,
		RdvDetails:  s.Rdv,
		Attachments: []types.Attachment{},
		CreatedAt:   created.UnixMilli(),
		UpdatedAt:   updated.UnixMilli(),
	}
}

// FreshIDs returns n new dossier ids that clash neither with the sample
// dossiers nor with existing.
func FreshIDs(existing []types.Dossier, n int, newID func() string) []string {
	if newID == nil {
		newID = utils.NanoID
	}

	taken := make(map[string]struct{}, len(existing)+len(sampleDossiers)+n)
	for _, d := range existing {
		taken[d.ID] = struct{}{}
	}
	for _, sd := range sampleDossiers {
		taken[sd.ID] = struct{}{}
	}

	ids := make([]string, 0, n)
	for len(ids) < n {
		id := newID()
		if _, ok := taken[id]; ok {
			continue
		}
		taken[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
