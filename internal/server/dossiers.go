package server

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"mairie/internal"
	"mairie/internal/attach"
	"mairie/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	// maxUploadBytes bounds a whole multipart body: a handful of
	// attachments at attach.MaxSize each.
	maxUploadBytes = 8 * attach.MaxSize
	// multipartMemory is kept in memory per request; larger parts spill to
	// temporary files.
	multipartMemory    = 32 << 20
	defaultImportMaxMB = 512
	actionTimeout      = 5 * time.Second
)

type statusForm struct {
	Status string `form:"status"`
	Return string `form:"return"`
}

type rdvForm struct {
	RdvDetails string `form:"rdvDetails"`
	Return     string `form:"return"`
}

type confirmForm struct {
	Confirm bool   `form:"confirm"`
	Return  string `form:"return"`
}

func (s *Service) handlePostDossier(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.redirectWithError(w, r, "/dossiers/new", "Formulaire invalide ou pièces jointes trop volumineuses")
		return
	}

	var fields types.DossierFields
	if err := decoder.Decode(&fields, r.Form); err != nil {
		s.redirectWithError(w, r, "/dossiers/new", "Formulaire invalide")
		return
	}

	// Files are fully read before anything reaches the manager.
	var attachments []types.Attachment
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["attachments"] {
			f, err := header.Open()
			if err != nil {
				s.logger.WithError(err).WithField("file", header.Filename).Error("failed to open uploaded file")
				s.redirectWithError(w, r, "/dossiers/new", "Lecture du fichier impossible : "+header.Filename)
				return
			}

			att, err := attach.FromReader(header.Filename, header.Header.Get("Content-Type"), f)
			_ = f.Close()
			if err != nil {
				msg := "Lecture du fichier impossible : " + header.Filename
				if errors.Is(err, attach.ErrTooLarge) {
					msg = fmt.Sprintf("Fichier trop volumineux (%d Mo maximum) : %s", attach.MaxSize>>20, header.Filename)
				}
				s.redirectWithError(w, r, "/dossiers/new", msg)
				return
			}

			attachments = append(attachments, att)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	d, err := s.manager.Create(ctx, fields, attachments...)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			data := &types.NewDossierPageData{
				BasePageData: types.BasePageData{
					Title:  "Nouveau dossier",
					Error:  "Veuillez remplir tous les champs obligatoires",
					Active: "/dossiers/new",
				},
				Fields:  fields,
				Missing: make(map[string]bool, len(verr.Fields)),
			}
			for _, name := range verr.Fields {
				data.Missing[name] = true
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusUnprocessableEntity)
			if err := s.renderTemplate(w, r, "page.new-dossier", data); err != nil {
				s.logger.WithError(err).Error("failed to render new dossier page")
			}
			return
		}

		s.actionFailed(w, r, "/dossiers/new", err)
		return
	}

	s.redirectWithNotice(w, r, "/views/incoming", "Dossier enregistré : "+d.Object)
}

func (s *Service) handlePostStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var input statusForm
	if !s.decodeForm(w, r, &input) {
		return
	}
	back := returnPath(r)

	status, err := types.ParseDossierStatus(input.Status)
	if err != nil {
		s.redirectWithError(w, r, back, "Statut inconnu")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if _, err := s.manager.ChangeStatus(ctx, id, status); err != nil {
		s.actionFailed(w, r, back, err)
		return
	}

	s.redirectWithNotice(w, r, back, "Statut mis à jour : "+status.String())
}

func (s *Service) handlePostRdv(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var input rdvForm
	if !s.decodeForm(w, r, &input) {
		return
	}
	back := returnPath(r)

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if _, err := s.manager.SetRdvDetails(ctx, id, input.RdvDetails); err != nil {
		s.actionFailed(w, r, back, err)
		return
	}

	s.redirectWithNotice(w, r, back, "Détails du rendez-vous enregistrés")
}

func (s *Service) handlePostRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	attachmentID := r.PathValue("attachmentID")

	var input confirmForm
	if !s.decodeForm(w, r, &input) {
		return
	}
	back := returnPath(r)

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	if _, err := s.manager.RemoveAttachment(ctx, id, attachmentID); err != nil {
		s.actionFailed(w, r, back, err)
		return
	}

	s.redirectWithNotice(w, r, back, "Pièce jointe retirée")
}

func (s *Service) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var input confirmForm
	if !s.decodeForm(w, r, &input) {
		return
	}
	back := returnPath(r)

	if !input.Confirm {
		s.redirectWithError(w, r, back, "Suppression non confirmée")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), actionTimeout)
	defer cancel()

	deleted, err := s.manager.Delete(ctx, id)
	if err != nil {
		s.actionFailed(w, r, back, err)
		return
	}

	if !deleted {
		s.redirectWithNotice(w, r, back, "Dossier déjà supprimé")
		return
	}

	s.redirectWithNotice(w, r, back, "Dossier supprimé")
}

func (s *Service) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	attachmentID := r.PathValue("attachmentID")

	d, err := s.manager.Dossier(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	for _, att := range d.Attachments {
		if att.ID != attachmentID {
			continue
		}

		data, mimeType, err := attach.Decode(att)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"dossier_id":    id,
				"attachment_id": attachmentID,
			}).Error("failed to decode attachment")
			s.internalServerError(w)
			return
		}

		disposition := "attachment"
		if inlineSafe(mimeType) {
			disposition = "inline"
		}

		if v := mime.FormatMediaType(disposition, map[string]string{"filename": att.Name}); v != "" {
			disposition = v
		}

		w.Header().Set("Content-Type", mimeType)
		w.Header().Set("Content-Disposition", disposition)
		w.Header().Set("Content-Security-Policy", "sandbox")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = w.Write(data)
		return
	}

	http.NotFound(w, r)
}

// inlineSafe reports whether a browser may display the type in place. SVG is
// left out since it can carry script.
func inlineSafe(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	if mediaType == "application/pdf" {
		return true
	}
	return strings.HasPrefix(mediaType, "image/") && mediaType != "image/svg+xml"
}

func (s *Service) decodeForm(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/", "Formulaire invalide")
		return false
	}

	if err := decoder.Decode(dst, r.Form); err != nil {
		s.logger.WithError(err).Debug("failed to decode form")
		s.redirectWithError(w, r, returnPath(r), "Formulaire invalide")
		return false
	}

	return true
}

// actionFailed maps a manager error to a message on the page the user came
// from.
func (s *Service) actionFailed(w http.ResponseWriter, r *http.Request, back string, err error) {
	switch {
	case errors.Is(err, types.ErrDossierNotFound):
		s.redirectWithError(w, r, back, "Dossier introuvable")
	case errors.Is(err, types.ErrInvalidStatus):
		s.redirectWithError(w, r, back, "Statut inconnu")
	case errors.Is(err, types.ErrStorageUnavailable):
		s.logger.WithError(err).Error("dossier change not persisted")
		s.redirectWithError(w, r, back, internal.ServiceUnavailableMessage)
	default:
		s.logger.WithError(err).Error("dossier action failed")
		s.redirectWithError(w, r, back, "Une erreur est survenue")
	}
}
