package internal

const (
	COOKIE_REDIRECT_NAME = "mairie_redirect"

	// ServiceUnavailableMessage is shown when a change could not be written.
	ServiceUnavailableMessage = "Enregistrement impossible, réessayez plus tard"
)
