package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"mairie/internal"
	"mairie/pkg/types"

	"github.com/sirupsen/logrus"
)

type session struct {
	LoginID   string
	ExpiresAt int64
}

type loginForm struct {
	LoginID  string `form:"loginId"`
	Password string `form:"password"`
}

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(s.config.CookieName); err == nil {
		var sess session
		if s.cookie.Decode(s.config.CookieName, cookie.Value, &sess) == nil && time.Now().Unix() <= sess.ExpiresAt {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{
			Title: "Connexion",
			Error: r.URL.Query().Get("error"),
		},
		LoginID: s.config.LoginID,
	}

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/login", "Formulaire invalide")
		return
	}

	var creds loginForm
	if err := decoder.Decode(&creds, r.Form); err != nil {
		s.redirectWithError(w, r, "/login", "Formulaire invalide")
		return
	}

	if !s.credentialsMatch(creds) {
		s.logger.WithField("login_id", creds.LoginID).Warn("rejected login attempt")
		s.redirectWithError(w, r, "/login", "Identifiant ou mot de passe incorrect")
		return
	}

	maxAge := time.Duration(s.config.SessionMaxAgeSec) * time.Second
	encoded, err := s.cookie.Encode(s.config.CookieName, session{
		LoginID:   s.config.LoginID,
		ExpiresAt: time.Now().Add(maxAge).Unix(),
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to encode session cookie")
		s.internalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.config.SessionMaxAgeSec,
		Path:     "/",
	})

	s.logger.WithFields(logrus.Fields{"login_id": s.config.LoginID}).Info("user logged in")

	// Check to see if this login attempt was the result of an unauthed redirect
	redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME)
	if err == nil && strings.HasPrefix(redirectCookie.Value, "/") && !strings.HasPrefix(redirectCookie.Value, "//") {
		s.clearRedirectCookie(w)
		http.Redirect(w, r, redirectCookie.Value, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Service) credentialsMatch(creds loginForm) bool {
	idOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(creds.LoginID)), []byte(s.config.LoginID)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Password), []byte(s.config.LoginPassword)) == 1
	return idOK && passOK
}

func (s *Service) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
