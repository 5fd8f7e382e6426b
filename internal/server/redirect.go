package server

import (
	"net/http"
	"net/url"
)

func (s *Service) redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	v := url.Values{}
	v.Set("notice", notice)
	http.Redirect(w, r, path+"?"+v.Encode(), http.StatusSeeOther)
}

func (s *Service) redirectWithError(w http.ResponseWriter, r *http.Request, path, msg string) {
	v := url.Values{}
	v.Set("error", msg)
	http.Redirect(w, r, path+"?"+v.Encode(), http.StatusSeeOther)
}

// returnPath is where an action form sends the user back to. Only local
// paths are honoured.
func returnPath(r *http.Request) string {
	back := r.FormValue("return")
	if back == "" || back[0] != '/' || (len(back) > 1 && back[1] == '/') {
		return "/"
	}
	if u, err := url.Parse(back); err == nil {
		return u.Path
	}
	return "/"
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
