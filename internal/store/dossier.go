package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"mairie/pkg/types"
)

// DefaultKey is the versioned key the collection is stored under. Bump the
// suffix (or add a migration) whenever the Dossier layout changes.
const DefaultKey = "mairie_manager_dossiers_v1"

// DossierStore reads and writes the whole dossier collection as one JSON
// document. Every write replaces the document.
type DossierStore struct {
	backend Backend
	key     string
	logger  logrus.FieldLogger
}

func NewDossierStore(backend Backend, key string, logger logrus.FieldLogger) *DossierStore {
	if key == "" {
		key = DefaultKey
	}

	return &DossierStore{
		backend: backend,
		key:     key,
		logger:  logger.WithField("storage_key", key),
	}
}

func (s *DossierStore) Key() string {
	return s.key
}

// Load returns the stored collection. A missing, unreadable or corrupt
// document yields an empty collection; the cause is logged, not returned.
func (s *DossierStore) Load(ctx context.Context) []types.Dossier {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.logger.WithError(err).Error("failed to load dossiers")
		return []types.Dossier{}
	}

	if !ok {
		return []types.Dossier{}
	}

	dossiers, err := DecodeSnapshot(raw)
	if err != nil {
		s.logger.WithError(err).Error("stored dossiers are unreadable, starting empty")
		return []types.Dossier{}
	}

	return dossiers
}

// Save overwrites the stored document with dossiers. The error wraps
// types.ErrStorageUnavailable; whether to surface it is the caller's call.
func (s *DossierStore) Save(ctx context.Context, dossiers []types.Dossier) error {
	data, err := EncodeSnapshot(dossiers, false)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	if err := s.backend.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	return nil
}

// ExportSnapshot re-reads the stored document and returns it indented.
// Unlike Load it reports storage and parse failures so that a broken store
// is never exported as an empty file.
func (s *DossierStore) ExportSnapshot(ctx context.Context) ([]byte, error) {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrStorageUnavailable, err)
	}

	dossiers := []types.Dossier{}
	if ok {
		dossiers, err = DecodeSnapshot(raw)
		if err != nil {
			return nil, err
		}
	}

	return EncodeSnapshot(dossiers, true)
}

// ImportSnapshot validates data and, only if it passes, replaces the stored
// collection with it. Ids must be unique. Rejections wrap types.ErrImportRejected and leave the
// backend untouched.
func (s *DossierStore) ImportSnapshot(ctx context.Context, data []byte) ([]types.Dossier, error) {
	dossiers, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrImportRejected, err)
	}

	if id, ok := duplicateID(dossiers); ok {
		return nil, fmt.Errorf("%w: %w: duplicate id %q", types.ErrImportRejected, types.ErrParseFailure, id)
	}

	if err := s.Save(ctx, dossiers); err != nil {
		return nil, err
	}

	s.logger.WithField("count", len(dossiers)).Info("dossiers imported")

	return dossiers, nil
}

// DecodeSnapshot is the single parse-and-validate step for stored and
// imported documents. It accepts a JSON array that is empty or whose first
// element has an "id" member; anything else wraps types.ErrParseFailure.
func DecodeSnapshot(data []byte) ([]types.Dossier, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrParseFailure, err)
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: document is not an array", types.ErrParseFailure)
	}

	if len(raw) > 0 {
		var first map[string]json.RawMessage
		if err := json.Unmarshal(raw[0], &first); err != nil {
			return nil, fmt.Errorf("%w: first element is not an object", types.ErrParseFailure)
		}
		if _, ok := first["id"]; !ok {
			return nil, fmt.Errorf("%w: first element has no id", types.ErrParseFailure)
		}
	}

	dossiers := make([]types.Dossier, 0, len(raw))
	for i, item := range raw {
		var d types.Dossier
		if err := json.Unmarshal(item, &d); err != nil {
			return nil, fmt.Errorf("%w: element %d: %w", types.ErrParseFailure, i, err)
		}
		dossiers = append(dossiers, d)
	}

	return dossiers, nil
}

func duplicateID(dossiers []types.Dossier) (string, bool) {
	seen := make(map[string]struct{}, len(dossiers))
	for _, d := range dossiers {
		if _, ok := seen[d.ID]; ok {
			return d.ID, true
		}
		seen[d.ID] = struct{}{}
	}
	return "", false
}

// EncodeSnapshot serializes dossiers; a nil collection encodes as [].
func EncodeSnapshot(dossiers []types.Dossier, indent bool) ([]byte, error) {
	if dossiers == nil {
		dossiers = []types.Dossier{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}

	if err := enc.Encode(dossiers); err != nil {
		return nil, fmt.Errorf("encode dossiers: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// IsRejected reports whether err came from snapshot validation rather than
// from the backend.
func IsRejected(err error) bool {
	return errors.Is(err, types.ErrImportRejected) || errors.Is(err, types.ErrParseFailure)
}
