package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mairie/internal/storage"
	"mairie/internal/store"
	"mairie/pkg/types"

	"github.com/sirupsen/logrus"
)

const transferTimeout = 30 * time.Second

func (s *Service) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	data := &types.TransferPageData{
		BasePageData: types.BasePageData{
			Title:  "Transfert de données",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
			Active: "/transfer",
		},
		Count:          len(s.manager.Dossiers()),
		ArchiveEnabled: s.archive != nil,
	}

	if s.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
		defer cancel()

		latest, err := s.archive.Latest(ctx)
		switch {
		case err == nil:
			data.LatestSnapshot = latest
			data.SnapshotsListed = true
		case errors.Is(err, storage.ErrNoSnapshot):
			data.SnapshotsListed = true
		default:
			s.logger.WithError(err).Warn("failed to list snapshots")
		}
	}

	if err := s.renderTemplate(w, r, "page.transfer", data); err != nil {
		s.logger.WithError(err).Error("failed to render transfer page")
		s.internalServerError(w)
	}
}

func (s *Service) handleGetExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
	defer cancel()

	data, err := s.manager.Export(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to export dossiers")
		s.redirectWithError(w, r, "/transfer", "Export impossible")
		return
	}

	filename := fmt.Sprintf("mairie_backup_%s.json", s.manager.Now().Format("2006-01-02"))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(data)
}

func (s *Service) handlePostImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.importLimit())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.redirectWithError(w, r, "/transfer", "Fichier invalide ou trop volumineux")
		return
	}

	var input confirmForm
	if err := decoder.Decode(&input, r.Form); err != nil || !input.Confirm {
		s.redirectWithError(w, r, "/transfer", "Import non confirmé : les données actuelles seraient remplacées")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		s.redirectWithError(w, r, "/transfer", "Aucun fichier sélectionné")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.redirectWithError(w, r, "/transfer", "Lecture du fichier impossible")
		return
	}

	s.importSnapshot(w, r, data, logrus.Fields{"file": header.Filename})
}

func (s *Service) handlePostSnapshotPush(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
	defer cancel()

	data, err := s.manager.Export(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to export dossiers for snapshot")
		s.redirectWithError(w, r, "/transfer", "Export impossible")
		return
	}

	key, err := s.archive.Push(ctx, data, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("failed to push snapshot")
		s.redirectWithError(w, r, "/transfer", "Envoi de la sauvegarde impossible")
		return
	}

	s.redirectWithNotice(w, r, "/transfer", "Sauvegarde envoyée : "+key)
}

func (s *Service) handlePostSnapshotRestore(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		http.NotFound(w, r)
		return
	}

	var input confirmForm
	if !s.decodeForm(w, r, &input) {
		return
	}
	if !input.Confirm {
		s.redirectWithError(w, r, "/transfer", "Restauration non confirmée")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
	defer cancel()

	key, err := s.archive.Latest(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("no snapshot to restore")
		s.redirectWithError(w, r, "/transfer", "Aucune sauvegarde disponible")
		return
	}

	data, err := s.archive.Pull(ctx, key)
	if err != nil {
		s.logger.WithError(err).Error("failed to pull snapshot")
		s.redirectWithError(w, r, "/transfer", "Téléchargement de la sauvegarde impossible")
		return
	}

	s.importSnapshot(w, r, data, logrus.Fields{"snapshot": key})
}

func (s *Service) importSnapshot(w http.ResponseWriter, r *http.Request, data []byte, fields logrus.Fields) {
	ctx, cancel := context.WithTimeout(r.Context(), transferTimeout)
	defer cancel()

	imported, err := s.manager.Import(ctx, data)
	if err != nil {
		if store.IsRejected(err) {
			s.logger.WithError(err).WithFields(fields).Warn("import rejected")
			s.redirectWithError(w, r, "/transfer", "Erreur lors de l'importation : format invalide")
			return
		}

		s.logger.WithError(err).WithFields(fields).Error("import failed")
		s.redirectWithError(w, r, "/transfer", "Erreur lors de l'importation")
		return
	}

	s.redirectWithNotice(w, r, "/transfer", fmt.Sprintf("Importation réussie : %d dossiers", len(imported)))
}

// importLimit is the largest backup body accepted, in bytes.
func (s *Service) importLimit() int64 {
	mb := s.config.ImportMaxMB
	if mb <= 0 {
		mb = defaultImportMaxMB
	}
	return mb << 20
}
