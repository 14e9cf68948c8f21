package httpapi

import (
	"net/http"
	"time"

	"github.com/DiplomWorkHushchin/Server/internal/audit"
	"github.com/DiplomWorkHushchin/Server/internal/auth"
	"github.com/DiplomWorkHushchin/Server/internal/obs"
)

const refreshCookieName = "refreshToken"

type registerRequest struct {
	Group      string `json:"group"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	FatherName string `json:"fatherName"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Email      string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userAuthResponse struct {
	Username   string   `json:"username"`
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	FatherName string   `json:"fatherName,omitempty"`
	Email      string   `json:"email"`
	GroupID    string   `json:"groupId,omitempty"`
	Roles      []string `json:"roles"`
	Token      string   `json:"token"`
}

func sessionResponse(s *auth.Session) userAuthResponse {
	return userAuthResponse{
		Username:   s.User.Username,
		FirstName:  s.User.FirstName,
		LastName:   s.User.LastName,
		FatherName: s.User.FatherName,
		Email:      s.User.Email,
		GroupID:    s.User.GroupID,
		Roles:      s.Roles,
		Token:      s.AccessToken,
	}
}

// The refresh credential travels only in a hardened cookie; the response
// body carries the access token alone.
func setRefreshCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func refreshCookieValue(r *http.Request) string {
	c, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func (a *API) writeSession(w http.ResponseWriter, s *auth.Session) {
	setRefreshCookie(w, s.Refresh.Value, s.Refresh.ExpiresAt)
	writeJSON(w, http.StatusOK, sessionResponse(s))
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.auth.Register(r.Context(), auth.RegisterInput{
		GroupName:  req.Group,
		Username:   req.Username,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		FatherName: req.FatherName,
		Password:   req.Password,
		Role:       req.Role,
		Email:      req.Email,
	})
	if err != nil {
		obs.ObserveAuth("register", "error")
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveAuth("register", "ok")
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"username": session.User.Username,
	})
	a.writeSession(w, session)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveAuth("login", "error")
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveAuth("login", "ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"username": session.User.Username,
	})
	a.writeSession(w, session)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	accessToken, _ := extractBearerToken(r.Header.Get(authHeader))
	session, err := a.auth.Refresh(r.Context(), accessToken, refreshCookieValue(r))
	if err != nil {
		obs.ObserveAuth("refresh", "error")
		clearRefreshCookie(w)
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveAuth("refresh", "ok")
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"username": session.User.Username,
	})
	a.writeSession(w, session)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if err := a.auth.Logout(r.Context(), refreshCookieValue(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveAuth("logout", "ok")
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleLoginViaGoogle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	http.Redirect(w, r, a.googleAuthURL, http.StatusFound)
}

func (a *API) handleGoogle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	token, err := extractBearerToken(r.Header.Get(authHeader))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}
	a.loginWithGoogle(w, r, token)
}

func (a *API) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	token := r.URL.Query().Get("access_token")
	if token == "" {
		writeError(w, r, http.StatusBadRequest, "access_token query parameter is required")
		return
	}
	a.loginWithGoogle(w, r, token)
}

func (a *API) loginWithGoogle(w http.ResponseWriter, r *http.Request, externalToken string) {
	session, err := a.auth.LoginWithGoogle(r.Context(), externalToken)
	if err != nil {
		obs.ObserveAuth("google", "error")
		handleServiceError(w, r, err)
		return
	}
	obs.ObserveAuth("google", "ok")
	_ = audit.LogEvent(r.Context(), "auth.google", map[string]any{
		"username": session.User.Username,
	})
	a.writeSession(w, session)
}
