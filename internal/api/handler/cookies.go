package handler

import "net/http"

// CookieWriter sets the portal's httpOnly cookies with consistent
// attributes. Secure is disabled only for local development.
type CookieWriter struct {
	Secure bool
}

// Set writes a cookie with the portal's standard attributes.
func (c CookieWriter) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires a cookie immediately.
func (c CookieWriter) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
