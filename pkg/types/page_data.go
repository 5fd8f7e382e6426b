package types

type NavbarData struct {
	IsAuthenticated bool
	LoginID         string
	Links           []NavLink
}

type NavLink struct {
	Label string
	Href  string
	Count int
}

type NavbarDataSetter interface {
	SetNavbarData(data NavbarData)
}

type BasePageData struct {
	Title  string
	Notice string
	Error  string
	Navbar NavbarData
	// Active is the path highlighted in the navbar.
	Active string
}

func (d *BasePageData) SetNavbarData(data NavbarData) {
	d.Navbar = data
}

type LoginPageData struct {
	BasePageData
	LoginID string
}

type StatusCard struct {
	Label string
	Code  string
	Count int
	Href  string
}

type ServiceRow struct {
	Service string
	Count   int
	Percent int
}

type DashboardPageData struct {
	BasePageData
	Statuses []StatusCard
	Services []ServiceRow
	Active   int
	Archived int
	Total    int
	Recent   []DossierCard
}

type StatusOption struct {
	Value    string
	Label    string
	Selected bool
}

type AttachmentLink struct {
	ID       string
	Name     string
	MimeType string
	Href     string
}

// DossierCard is a dossier prepared for display. Dates are already
// formatted in the office time zone.
type DossierCard struct {
	ID          string
	FullName    string
	Email       string
	Object      string
	Service     string
	Description string
	Status      string
	StatusCode  string
	RdvDetails  string
	ShowRdv     bool
	CreatedAt   string
	UpdatedAt   string
	IsArchived  bool
	ReadOnly    bool
	// Return is the page action forms send the user back to.
	Return      string
	Options     []StatusOption
	Attachments []AttachmentLink
}

type ListPageData struct {
	BasePageData
	View     string
	Dossiers []DossierCard
	Empty    string
}

type NewDossierPageData struct {
	BasePageData
	Fields  DossierFields
	Missing map[string]bool
}

type TransferPageData struct {
	BasePageData
	Count           int
	ArchiveEnabled  bool
	LatestSnapshot  string
	SnapshotsListed bool
}
