package app

import "net/http"

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.optionalSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"userName":      sess.Name,
		"email":         sess.Email,
		"role":          sess.Role,
	})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
		"userName":     sess.Name,
		"email":        sess.Email,
		"role":         sess.Role,
		"expiresAt":    sess.ExpiresAt.Unix(),
	})
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
		"userName":     sess.Name,
		"expiresAt":    sess.ExpiresAt.Unix(),
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.optionalSession(r)
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = decodeBody(r, &body)
	_ = s.service.Logout(r.Context(), sess, body.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
