package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"folio/api/internal/auth"
	"folio/api/internal/authpw"
	"folio/api/internal/collections"
	"folio/api/internal/config"
	"folio/api/internal/email"
	"folio/api/internal/export"
	"folio/api/internal/logging"
	"folio/api/internal/portfolio"
	"folio/api/internal/rbac"
	"folio/api/internal/search"
	"folio/api/internal/session"
	"folio/api/internal/store"
	"folio/api/internal/util"
)

// Mirror is the remote copy of the portfolio. store.PostgresStore and
// mongostore.Store both satisfy it.
type Mirror interface {
	Ping(context.Context) error
	GetOrCreateProfile(context.Context, string) (store.ProfileRecord, error)
	PatchProfile(context.Context, string, portfolio.ProfilePatch) (store.ProfileRecord, error)
	SaveProfile(context.Context, string, portfolio.Profile) (store.ProfileRecord, error)
	ListProjects(context.Context, string) ([]store.ProjectRecord, error)
	GetProject(context.Context, string, string) (store.ProjectRecord, error)
	InsertProject(context.Context, string, portfolio.Project) (store.ProjectRecord, error)
	UpdateProject(context.Context, string, string, portfolio.Project) (store.ProjectRecord, error)
	DeleteProject(context.Context, string, string) (bool, error)
	FindProject(context.Context, string, string, string) (store.ProjectRecord, bool, error)
	ListContacts(context.Context, string) ([]store.ContactRecord, error)
	GetContact(context.Context, string, string) (store.ContactRecord, error)
	InsertContact(context.Context, string, portfolio.ContactMessage) (store.ContactRecord, error)
	UpdateContact(context.Context, string, string, portfolio.ContactMessage) (store.ContactRecord, error)
	DeleteContact(context.Context, string, string) (bool, error)
	FindContact(context.Context, string, string, string, string, string) (store.ContactRecord, bool, error)
	GetOrCreateGitSettings(context.Context, string) (store.GitSettingsRecord, error)
	SaveGitSettings(context.Context, string, portfolio.GitSettings) (store.GitSettingsRecord, error)
	Counts(context.Context, string) (store.MirrorCounts, error)
}

// Availability reports whether the mirror is reachable right now.
type Availability interface {
	Available() bool
}

type Deps struct {
	Mirror       Mirror
	Availability Availability
	Search       *search.Service
	Email        *email.Service
	Sessions     session.Store
	Admin        *authpw.Verifier
	Export       *export.Service
}

type Session struct {
	Token        string
	RefreshToken string
	Subject      string
	Email        string
	Name         string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type Service struct {
	cfg          config.Config
	mirror       Mirror
	availability Availability
	search       *search.Service
	email        *email.Service
	sessions     session.Store
	admin        *authpw.Verifier
	export       *export.Service
	now          func() time.Time
}

func New(cfg config.Config, deps Deps) *Service {
	s := &Service{
		cfg:          cfg,
		mirror:       deps.Mirror,
		availability: deps.Availability,
		search:       deps.Search,
		email:        deps.Email,
		sessions:     deps.Sessions,
		admin:        deps.Admin,
		export:       deps.Export,
		now:          time.Now,
	}
	if s.search == nil {
		s.search = search.NewService(nil, nil)
	}
	if s.email == nil {
		s.email = email.NewService(email.Config{OwnerEmail: cfg.OwnerEmail})
	}
	if s.sessions == nil {
		s.sessions = session.NewMemoryStore()
	}
	if s.export == nil {
		s.export = export.NewService()
	}
	return s
}

func (s *Service) tenant() string {
	if s.cfg.TenantID == "" {
		return "kanu-portfolio"
	}
	return s.cfg.TenantID
}

// RemoteAvailable is the connection-state flag reported to clients.
func (s *Service) RemoteAvailable() bool {
	if s.mirror == nil {
		return false
	}
	return s.availability == nil || s.availability.Available()
}

func (s *Service) requireRemote() error {
	if !s.RemoteAvailable() {
		return ErrRemoteUnavailable
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	if s.mirror == nil {
		return errors.New("remote store disabled")
	}
	return s.mirror.Ping(ctx)
}

func (s *Service) PingMessage() string {
	if s.cfg.PingMessage == "" {
		return "ping"
	}
	return s.cfg.PingMessage
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

// Profile

func (s *Service) Profile(ctx context.Context) (store.ProfileRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.ProfileRecord{}, err
	}
	return s.mirror.GetOrCreateProfile(ctx, s.tenant())
}

// UpdateProfile merges the patch into the stored profile, creating it from
// the defaults when absent.
func (s *Service) UpdateProfile(ctx context.Context, patch portfolio.ProfilePatch) (store.ProfileRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.ProfileRecord{}, err
	}
	return s.mirror.PatchProfile(ctx, s.tenant(), patch)
}

// ReplaceContactInfo overwrites the whole contact sub-record.
func (s *Service) ReplaceContactInfo(ctx context.Context, info portfolio.ContactInfo) (store.ProfileRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.ProfileRecord{}, err
	}
	current, err := s.mirror.GetOrCreateProfile(ctx, s.tenant())
	if err != nil {
		return store.ProfileRecord{}, err
	}
	profile := current.Profile.Clone()
	profile.ContactInfo = info
	return s.mirror.SaveProfile(ctx, s.tenant(), profile)
}

// Projects

func (s *Service) ListProjects(ctx context.Context) ([]store.ProjectRecord, error) {
	if err := s.requireRemote(); err != nil {
		return nil, err
	}
	items, err := s.mirror.ListProjects(ctx, s.tenant())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.ProjectRecord{}
	}
	return items, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (store.ProjectRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.ProjectRecord{}, err
	}
	rec, err := s.mirror.GetProject(ctx, s.tenant(), id)
	if errors.Is(err, store.ErrNotFound) {
		return store.ProjectRecord{}, notFound("Project")
	}
	return rec, err
}

// CreateProject stores a new project with the detail fields filled in.
func (s *Service) CreateProject(ctx context.Context, p portfolio.Project) (store.ProjectRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.ProjectRecord{}, err
	}
	if err := p.Validate(); err != nil {
		return store.ProjectRecord{}, invalid(err)
	}
	if p.Status == "" {
		p.Status = portfolio.StatusInDevelopment
	}
	rec, err := s.mirror.InsertProject(ctx, s.tenant(), portfolio.ProjectDetail(p, s.now()))
	if err != nil {
		return store.ProjectRecord{}, err
	}
	s.search.IndexProject(projectDocument(rec))
	return rec, nil
}

// UpdateProject overlays the JSON body on the stored project. Fields absent
// from the body keep their stored values.
func (s *Service) UpdateProject(ctx context.Context, id string, body json.RawMessage) (store.ProjectRecord, error) {
	current, err := s.GetProject(ctx, id)
	if err != nil {
		return store.ProjectRecord{}, err
	}
	updated, err := overlay(current.Project, body)
	if err != nil {
		return store.ProjectRecord{}, err
	}
	if err := updated.Validate(); err != nil {
		return store.ProjectRecord{}, invalid(err)
	}
	rec, err := s.mirror.UpdateProject(ctx, s.tenant(), id, updated)
	if errors.Is(err, store.ErrNotFound) {
		return store.ProjectRecord{}, notFound("Project")
	}
	if err != nil {
		return store.ProjectRecord{}, err
	}
	s.search.IndexProject(projectDocument(rec))
	return rec, nil
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.requireRemote(); err != nil {
		return err
	}
	deleted, err := s.mirror.DeleteProject(ctx, s.tenant(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("Project")
	}
	s.search.DeleteProject(id)
	return nil
}

// Contacts

func (s *Service) ListContacts(ctx context.Context) ([]store.ContactRecord, error) {
	if err := s.requireRemote(); err != nil {
		return nil, err
	}
	items, err := s.mirror.ListContacts(ctx, s.tenant())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.ContactRecord{}
	}
	return items, nil
}

// CreateContact stores a contact form submission with the same defaults the
// local collection applies.
func (s *Service) CreateContact(ctx context.Context, m portfolio.ContactMessage) (store.ContactRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.ContactRecord{}, err
	}
	m = collections.WithContactDefaults(m, s.now())
	if err := m.Validate(); err != nil {
		return store.ContactRecord{}, invalid(err)
	}
	rec, err := s.mirror.InsertContact(ctx, s.tenant(), m)
	if err != nil {
		return store.ContactRecord{}, err
	}
	s.search.IndexContact(contactDocument(rec))
	return rec, nil
}

// SetContactStatus changes only the status of a stored message.
func (s *Service) SetContactStatus(ctx context.Context, id string, status portfolio.ContactStatus) (store.ContactRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.ContactRecord{}, err
	}
	if !status.Valid() {
		return store.ContactRecord{}, validationError(fmt.Sprintf("unknown contact status %q", status))
	}
	current, err := s.mirror.GetContact(ctx, s.tenant(), id)
	if errors.Is(err, store.ErrNotFound) {
		return store.ContactRecord{}, notFound("Contact message")
	}
	if err != nil {
		return store.ContactRecord{}, err
	}
	msg := current.ContactMessage
	msg.Status = status
	rec, err := s.mirror.UpdateContact(ctx, s.tenant(), id, msg)
	if errors.Is(err, store.ErrNotFound) {
		return store.ContactRecord{}, notFound("Contact message")
	}
	if err != nil {
		return store.ContactRecord{}, err
	}
	s.search.IndexContact(contactDocument(rec))
	return rec, nil
}

func (s *Service) DeleteContact(ctx context.Context, id string) error {
	if err := s.requireRemote(); err != nil {
		return err
	}
	deleted, err := s.mirror.DeleteContact(ctx, s.tenant(), id)
	if err != nil {
		return err
	}
	if !deleted {
		return notFound("Contact message")
	}
	s.search.DeleteContact(id)
	return nil
}

// Git settings

func (s *Service) GitSettings(ctx context.Context) (store.GitSettingsRecord, error) {
	if err := s.requireRemote(); err != nil {
		return store.GitSettingsRecord{}, err
	}
	return s.mirror.GetOrCreateGitSettings(ctx, s.tenant())
}

func (s *Service) UpdateGitSettings(ctx context.Context, body json.RawMessage) (store.GitSettingsRecord, error) {
	current, err := s.GitSettings(ctx)
	if err != nil {
		return store.GitSettingsRecord{}, err
	}
	updated, err := overlay(current.GitSettings, body)
	if err != nil {
		return store.GitSettingsRecord{}, err
	}
	return s.mirror.SaveGitSettings(ctx, s.tenant(), updated)
}

// Email

var errEmailNotConfigured = domainError(http.StatusServiceUnavailable, "EMAIL_NOT_CONFIGURED", "Email service not configured",
	"Email credentials not set in environment variables")

// SendEmail delivers a contact form submission. Without SMTP settings the
// delivery is simulated in development and refused in production.
func (s *Service) SendEmail(_ context.Context, req email.ContactRequest) (email.Result, error) {
	if err := req.Validate(); err != nil {
		return email.Result{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Missing required fields",
			"Name, email, and message are required")
	}
	log := logging.New("email")
	if !s.email.IsConfigured() {
		if s.cfg.IsProduction() {
			return email.Result{}, errEmailNotConfigured
		}
		log.Info("simulated contact email", "sender", req.Email, "method", req.ContactMethod)
		return s.email.Simulate(req)
	}
	res, err := s.email.SendContact(req)
	if err != nil {
		log.Error("send contact email", "error", err)
		return email.Result{}, domainError(http.StatusInternalServerError, "EMAIL_FAILED", "Failed to send email", err.Error())
	}
	return res, nil
}

// Search

func (s *Service) Search(ctx context.Context, q search.Query) search.Response {
	q.UserID = s.tenant()
	return s.search.Search(ctx, q)
}

// Export

// ExportPortfolio renders the mirrored profile and projects.
func (s *Service) ExportPortfolio(ctx context.Context, format export.Format) (*export.Result, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	projects := make([]portfolio.Project, 0, len(records))
	for _, r := range records {
		projects = append(projects, r.Project)
	}
	return s.export.Export(ctx, export.Portfolio{Profile: profile.Profile, Projects: projects}, format)
}

// Sessions

// Login checks the admin credentials and issues an access/refresh pair.
func (s *Service) Login(ctx context.Context, emailAddr, password string) (Session, error) {
	if s.admin == nil {
		return Session{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Admin login not configured", nil)
	}
	user, err := s.admin.Verify(ctx, emailAddr, password)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
	}
	return s.issueSession(ctx, session.Grant{
		Subject: user.Email,
		Email:   user.Email,
		Name:    user.Name,
		Role:    string(rbac.RoleAdmin),
	})
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	grant, err := s.sessions.LookupRefresh(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefresh(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, grant)
}

func (s *Service) issueSession(ctx context.Context, grant session.Grant) (Session, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   grant.Subject,
		Email: grant.Email,
		Name:  grant.Name,
		Role:  grant.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	grant.CreatedAt = now
	if err := s.sessions.SaveRefresh(ctx, auth.HashToken(refresh), grant, now.Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		Subject:      grant.Subject,
		Email:        grant.Email,
		Name:         grant.Name,
		Role:         grant.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.sessions.IsRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		Subject:   claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, sess Session, refreshToken string) error {
	if sess.JTI != "" {
		_ = s.sessions.RevokeAccess(ctx, sess.JTI, sess.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefresh(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// overlay decodes body on top of base so absent fields keep their values.
func overlay[T any](base T, body json.RawMessage) (T, error) {
	out := base
	if len(body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return base, domainError(http.StatusBadRequest, "INVALID_BODY", "invalid JSON body", nil)
	}
	return out, nil
}

func projectDocument(r store.ProjectRecord) search.ProjectRecord {
	return search.ProjectRecord{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Status:      string(r.Status),
	}
}

func contactDocument(r store.ContactRecord) search.ContactRecord {
	return search.ContactRecord{
		ID:      r.ID,
		UserID:  r.UserID,
		Name:    r.Name,
		Email:   r.Email,
		Subject: r.Subject,
		Message: r.Message,
		Status:  string(r.Status),
	}
}
