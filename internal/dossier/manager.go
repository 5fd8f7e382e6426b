// Package dossier owns the in-memory dossier collection and is its only
// writer. Every successful mutation rewrites the whole collection through
// the store before returning.
package dossier

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mairie/internal/store"
	"mairie/internal/utils"
	"mairie/internal/week"
	"mairie/pkg/types"
)

type Clock func() time.Time

type Option func(*Manager)

// WithClock replaces time.Now, mostly for tests and for pinning the
// calendar to a configured time zone.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.now = c }
}

func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// WithStrictPersistence makes mutators fail, and leave memory untouched,
// when the store cannot be written. By default the failure is only logged.
func WithStrictPersistence(strict bool) Option {
	return func(m *Manager) { m.strict = strict }
}

type Manager struct {
	mu       sync.Mutex
	store    *store.DossierStore
	dossiers []types.Dossier
	now      Clock
	newID    func() string
	strict   bool
	logger   logrus.FieldLogger
}

func New(s *store.DossierStore, logger logrus.FieldLogger, opts ...Option) *Manager {
	m := &Manager{
		store:    s,
		dossiers: []types.Dossier{},
		now:      time.Now,
		newID:    utils.NanoID,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Open loads the stored collection and archives everything created before
// the current week. It returns the number of dossiers archived.
func (m *Manager) Open(ctx context.Context) (int, error) {
	loaded := m.store.Load(ctx)

	m.mu.Lock()
	m.dossiers = loaded
	m.mu.Unlock()

	m.logger.WithField("count", len(loaded)).Debug("dossiers loaded")

	return m.RunArchivalSweep(ctx, m.now())
}

// Now is the manager's clock, exposed so views use the same calendar.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Dossiers returns a copy of the collection in storage order.
func (m *Manager) Dossiers() []types.Dossier {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Dossier, len(m.dossiers))
	for i, d := range m.dossiers {
		out[i] = d.Clone()
	}
	return out
}

func (m *Manager) Dossier(id string) (types.Dossier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Dossier{}, types.ErrDossierNotFound
	}
	return m.dossiers[i].Clone(), nil
}

// Create validates fields and prepends a new NOUVEAU dossier carrying the
// already decoded attachments.
func (m *Manager) Create(ctx context.Context, fields types.DossierFields, attachments ...types.Attachment) (types.Dossier, error) {
	if err := fields.Validate(); err != nil {
		return types.Dossier{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UnixMilli()

	staged := make([]types.Attachment, 0, len(attachments))
	for _, att := range attachments {
		if att.ID == "" {
			att.ID = utils.NanoIDSize(9)
		}
		staged = append(staged, att)
	}

	d := types.Dossier{
		ID:          m.uniqueID(),
		FirstName:   fields.FirstName,
		LastName:    fields.LastName,
		Email:       fields.Email,
		Object:      fields.Object,
		Service:     fields.Service,
		Description: fields.Description,
		Status:      types.DossierStatusNouveau,
		CreatedAt:   now,
		UpdatedAt:   now,
		Attachments: staged,
		IsArchived:  false,
	}

	next := make([]types.Dossier, 0, len(m.dossiers)+1)
	next = append(next, d)
	next = append(next, m.dossiers...)

	if err := m.commit(ctx, next); err != nil {
		return types.Dossier{}, err
	}

	m.logger.WithFields(logrus.Fields{
		"dossier_id":  d.ID,
		"service":     d.Service,
		"attachments": len(staged),
	}).Info("dossier created")

	return d.Clone(), nil
}

// ChangeStatus moves a dossier to status. Any status may follow any other;
// asking for the current status is a no-op that neither bumps UpdatedAt
// nor writes.
func (m *Manager) ChangeStatus(ctx context.Context, id string, status types.DossierStatus) (types.Dossier, error) {
	if !status.Valid() {
		return types.Dossier{}, types.ErrInvalidStatus
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Dossier{}, types.ErrDossierNotFound
	}

	if m.dossiers[i].Status == status {
		return m.dossiers[i].Clone(), nil
	}

	from := m.dossiers[i].Status
	next := m.cloneAll()
	next[i].Status = status
	m.touch(&next[i])

	if err := m.commit(ctx, next); err != nil {
		return types.Dossier{}, err
	}

	m.logger.WithFields(logrus.Fields{
		"dossier_id": id,
		"from":       from.Code(),
		"to":         status.Code(),
	}).Info("dossier status changed")

	return next[i].Clone(), nil
}

// SetRdvDetails overwrites the appointment note whatever the status is.
func (m *Manager) SetRdvDetails(ctx context.Context, id, text string) (types.Dossier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Dossier{}, types.ErrDossierNotFound
	}

	next := m.cloneAll()
	next[i].RdvDetails = text
	m.touch(&next[i])

	if err := m.commit(ctx, next); err != nil {
		return types.Dossier{}, err
	}

	m.logger.WithField("dossier_id", id).Info("dossier appointment updated")

	return next[i].Clone(), nil
}

// RemoveAttachment drops one attachment, keeping the order of the others.
// An unknown attachment id changes nothing, UpdatedAt included.
func (m *Manager) RemoveAttachment(ctx context.Context, id, attachmentID string) (types.Dossier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return types.Dossier{}, types.ErrDossierNotFound
	}

	j := slices.IndexFunc(m.dossiers[i].Attachments, func(a types.Attachment) bool {
		return a.ID == attachmentID
	})
	if j < 0 {
		return m.dossiers[i].Clone(), nil
	}

	next := m.cloneAll()
	next[i].Attachments = slices.Delete(next[i].Attachments, j, j+1)
	m.touch(&next[i])

	if err := m.commit(ctx, next); err != nil {
		return types.Dossier{}, err
	}

	m.logger.WithFields(logrus.Fields{
		"dossier_id":    id,
		"attachment_id": attachmentID,
	}).Info("dossier attachment removed")

	return next[i].Clone(), nil
}

// Delete removes a dossier for good. Deleting an unknown id is a no-op and
// reports false.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}

	next := m.cloneAll()
	next = slices.Delete(next, i, i+1)

	if err := m.commit(ctx, next); err != nil {
		return false, err
	}

	m.logger.WithField("dossier_id", id).Info("dossier deleted")

	return true, nil
}

// RunArchivalSweep flags every live dossier created before now's week as
// archived. UpdatedAt is left alone and nothing is written unless at least
// one dossier changed. Archived dossiers are never revisited.
func (m *Manager) RunArchivalSweep(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var next []types.Dossier
	archived := 0

	for i, d := range m.dossiers {
		if d.IsArchived || !week.IsInPastWeek(d.CreatedAt, now) {
			continue
		}
		if next == nil {
			next = m.cloneAll()
		}
		next[i].IsArchived = true
		archived++
	}

	if archived == 0 {
		return 0, nil
	}

	if err := m.commit(ctx, next); err != nil {
		return 0, err
	}

	m.logger.WithFields(logrus.Fields{
		"archived":   archived,
		"week_start": week.MondayOf(now).Format(time.DateOnly),
	}).Info("archival sweep completed")

	return archived, nil
}

// Import validates data and replaces both the stored and the in-memory
// collection. On rejection nothing changes.
func (m *Manager) Import(ctx context.Context, data []byte) ([]types.Dossier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dossiers, err := m.store.ImportSnapshot(ctx, data)
	if err != nil {
		return nil, err
	}

	m.dossiers = dossiers

	out := make([]types.Dossier, len(dossiers))
	for i, d := range dossiers {
		out[i] = d.Clone()
	}
	return out, nil
}

// Export returns the stored collection as an indented JSON document.
func (m *Manager) Export(ctx context.Context) ([]byte, error) {
	return m.store.ExportSnapshot(ctx)
}

// commit persists next and makes it the current collection. In strict mode
// a failed write leaves the current collection as it was.
func (m *Manager) commit(ctx context.Context, next []types.Dossier) error {
	if err := m.store.Save(ctx, next); err != nil {
		if m.strict {
			return err
		}
		m.logger.WithError(err).Warn("dossiers kept in memory only, save failed")
	}

	m.dossiers = next
	return nil
}

func (m *Manager) touch(d *types.Dossier) {
	d.UpdatedAt = max(m.now().UnixMilli(), d.CreatedAt)
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.dossiers, func(d types.Dossier) bool {
		return d.ID == id
	})
}

func (m *Manager) uniqueID() string {
	for {
		id := m.newID()
		if m.indexOf(id) < 0 {
			return id
		}
	}
}

func (m *Manager) cloneAll() []types.Dossier {
	out := make([]types.Dossier, len(m.dossiers))
	for i, d := range m.dossiers {
		out[i] = d.Clone()
	}
	return out
}
