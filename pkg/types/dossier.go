package types

import (
	"fmt"
	"strings"
)

type DossierStatus string

const (
	DossierStatusNouveau  DossierStatus = "Nouveau"
	DossierStatusTransmis DossierStatus = "Transmis au service"
	DossierStatusRDV      DossierStatus = "Demande de RDV"
	DossierStatusCloture  DossierStatus = "Clôturé"
)

var dossierStatusCodes = map[DossierStatus]string{
	DossierStatusNouveau:  "NOUVEAU",
	DossierStatusTransmis: "TRANSMIS",
	DossierStatusRDV:      "RDV",
	DossierStatusCloture:  "CLOTURE",
}

// AllDossierStatuses returns the four statuses in workflow order.
func AllDossierStatuses() []DossierStatus {
	return []DossierStatus{
		DossierStatusNouveau,
		DossierStatusTransmis,
		DossierStatusRDV,
		DossierStatusCloture,
	}
}

func (s DossierStatus) Valid() bool {
	_, ok := dossierStatusCodes[s]
	return ok
}

// Code is the short, ascii name used on the command line and in URLs.
func (s DossierStatus) Code() string {
	return dossierStatusCodes[s]
}

func (s DossierStatus) String() string {
	return string(s)
}

// ParseDossierStatus accepts either the code (NOUVEAU, rdv, ...) or the
// stored label (Demande de RDV, ...).
func ParseDossierStatus(v string) (DossierStatus, error) {
	v = strings.TrimSpace(v)
	for status, code := range dossierStatusCodes {
		if strings.EqualFold(v, code) || v == string(status) {
			return status, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, v)
}

// Attachment is a file staged with a dossier. Content is a data URL and is
// never interpreted by the lifecycle code.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"type"`
	Content  string `json:"content"`
}

type Dossier struct {
	ID          string        `json:"id"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	Object      string        `json:"object"`
	Service     string        `json:"service"`
	Description string        `json:"description"`
	Status      DossierStatus `json:"status"`
	CreatedAt   int64         `json:"createdAt"`
	UpdatedAt   int64         `json:"updatedAt"`
	RdvDetails  string        `json:"rdvDetails,omitempty"`
	Attachments []Attachment  `json:"attachments"`
	IsArchived  bool          `json:"isArchived"`
}

func (d *Dossier) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Clone returns a copy that shares no slice memory with d.
func (d Dossier) Clone() Dossier {
	if d.Attachments != nil {
		atts := make([]Attachment, len(d.Attachments))
		copy(atts, d.Attachments)
		d.Attachments = atts
	}
	return d
}

// DossierFields is the intake bundle supplied when a dossier is created.
type DossierFields struct {
	FirstName   string `form:"firstName" json:"firstName"`
	LastName    string `form:"lastName" json:"lastName"`
	Email       string `form:"email" json:"email"`
	Object      string `form:"object" json:"object"`
	Service     string `form:"service" json:"service"`
	Description string `form:"description" json:"description"`
}

// Validate reports every required field that is empty or whitespace only.
func (f DossierFields) Validate() error {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}

	check("firstName", f.FirstName)
	check("lastName", f.LastName)
	check("email", f.Email)
	check("object", f.Object)
	check("service", f.Service)
	check("description", f.Description)

	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}

	return nil
}
