package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"folio/api/internal/email"
	"folio/api/internal/export"
	"folio/api/internal/portfolio"
	"folio/api/internal/rbac"
	"folio/api/internal/search"
)

// Profile

func (s *HTTPServer) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.service.Profile(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *HTTPServer) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var patch portfolio.ProfilePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	profile, err := s.service.UpdateProfile(r.Context(), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleProfileField updates the single profile field named by the body key.
func (s *HTTPServer) handleProfileField(field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]*string
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		value, ok := body[field]
		if !ok || value == nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", field+" is required", nil)
			return
		}
		var patch portfolio.ProfilePatch
		switch field {
		case "profileImage":
			patch.ProfileImage = value
		case "logoText":
			patch.LogoText = value
		case "resumeUrl":
			patch.ResumeURL = value
		}
		profile, err := s.service.UpdateProfile(r.Context(), patch)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func (s *HTTPServer) handleProfileContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ContactInfo *portfolio.ContactInfo `json:"contactInfo"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.ContactInfo == nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "contactInfo is required", nil)
		return
	}
	profile, err := s.service.ReplaceContactInfo(r.Context(), *body.ContactInfo)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Projects

func (s *HTTPServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListProjects(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var project portfolio.Project
	if err := decodeBody(r, &project); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	item, err := s.service.CreateProject(r.Context(), project)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	item, err := s.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Project deleted successfully"})
}

// Contacts

func (s *HTTPServer) handleListContacts(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListContacts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var msg portfolio.ContactMessage
	if err := decodeBody(r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	item, err := s.service.CreateContact(r.Context(), msg)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status portfolio.ContactStatus `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	item, err := s.service.SetContactStatus(r.Context(), chi.URLParam(r, "id"), body.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Contact message deleted successfully"})
}

// Git settings

func (s *HTTPServer) handleGetGit(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.GitSettings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *HTTPServer) handleUpdateGit(w http.ResponseWriter, r *http.Request) {
	var body json.RawMessage
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	settings, err := s.service.UpdateGitSettings(r.Context(), body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Migration

func (s *HTTPServer) handleMigrate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LocalStorageData map[string]json.RawMessage `json:"localStorageData"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if !s.service.RemoteAvailable() {
		writeRemoteUnavailable(w)
		return
	}
	if body.LocalStorageData == nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "localStorageData is required", nil)
		return
	}
	results, err := s.service.Migrate(r.Context(), body.LocalStorageData)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Data migration completed",
		"results": results,
	})
}

func (s *HTTPServer) handleMigrationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.MigrationStatus(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Email

func (s *HTTPServer) handleSendEmail(w http.ResponseWriter, r *http.Request) {
	var req email.ContactRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	res, err := s.service.SendEmail(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	filterType := search.ResultType(strings.TrimSpace(r.URL.Query().Get("type")))
	switch filterType {
	case "", search.ResultProject, search.ResultContact:
	default:
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be project or contact", nil)
		return
	}

	publicOnly := false
	if s.service.cfg.RequireAdminAuth {
		sess, ok := s.optionalSession(r)
		publicOnly = !ok || !s.service.Can(sess.Role, rbac.ActionAdmin)
	}

	writeJSON(w, http.StatusOK, s.service.Search(r.Context(), search.Query{
		Text:       strings.TrimSpace(r.URL.Query().Get("q")),
		FilterType: filterType,
		Limit:      limit,
		Offset:     offset,
		PublicOnly: publicOnly,
	}))
}

// Export

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	result, err := s.service.ExportPortfolio(r.Context(), format)
	switch {
	case errors.Is(err, export.ErrPDFDependencyMissing), errors.Is(err, export.ErrDOCXDependencyMissing):
		writeError(w, http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", err.Error(), nil)
		return
	case err != nil:
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}
