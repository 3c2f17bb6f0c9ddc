// Package github lists a user's repositories and turns them into portfolio
// projects.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"folio/api/internal/portfolio"
)

const DefaultAPIURL = "https://api.github.com"

// RepoImage is the card image given to imported repositories.
const RepoImage = "https://images.unsplash.com/photo-1516321318423-f06f85e504b3?w=500&h=300&fit=crop&crop=top"

var (
	ErrInvalidToken = errors.New("invalid access token, check your GitHub personal access token")
	ErrUserNotFound = errors.New("username not found, check your GitHub username")
	ErrMissingInput = errors.New("GitHub username and access token are required")
)

type Repo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	Watchers    int       `json:"watchers_count"`
	Language    string    `json:"language"`
	UpdatedAt   time.Time `json:"updated_at"`
	HTMLURL     string    `json:"html_url"`
	CloneURL    string    `json:"clone_url"`
	Private     bool      `json:"private"`
	Fork        bool      `json:"fork"`
}

type User struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient targets baseURL, or the public API when it is empty.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// ListRepos returns the user's 20 most recently updated repositories.
func (c *Client) ListRepos(ctx context.Context, user, token string) ([]Repo, error) {
	if strings.TrimSpace(user) == "" || strings.TrimSpace(token) == "" {
		return nil, ErrMissingInput
	}
	var repos []Repo
	path := "/users/" + url.PathEscape(user) + "/repos?sort=updated&per_page=20"
	if err := c.get(ctx, path, token, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

// ValidateToken returns the account the token belongs to.
func (c *Client) ValidateToken(ctx context.Context, token string) (User, error) {
	var u User
	if strings.TrimSpace(token) == "" {
		return u, ErrMissingInput
	}
	err := c.get(ctx, "/user", token, &u)
	return u, err
}

func (c *Client) get(ctx context.Context, path, token string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("github: create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidToken
	case resp.StatusCode == http.StatusNotFound:
		return ErrUserNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("github: API error: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("github: decode response: %w", err)
	}
	return nil
}

// ProjectFromRepo builds a live portfolio project for repo. The caller
// assigns the ID.
func ProjectFromRepo(repo Repo) portfolio.Project {
	description := strings.TrimSpace(repo.Description)
	if description == "" {
		description = "Repository project integrated from GitHub"
	}
	tags := []string{}
	if repo.Language != "" {
		tags = append(tags, repo.Language)
	}
	demo := strings.TrimSuffix(strings.Replace(repo.HTMLURL, "github.com", "github.io", 1), ".git")
	if demo == "" {
		demo = portfolio.DefaultLink
	}
	return portfolio.Project{
		Title:       TitleFromName(repo.Name),
		Description: description,
		Tags:        tags,
		Image:       RepoImage,
		Status:      portfolio.StatusLive,
		Links:       portfolio.ProjectLinks{GitHub: repo.HTMLURL, Demo: demo},
	}
}

// TitleFromName turns "weather-app_v2" into "Weather App_v2": dashes become
// spaces and every word starts upper case.
func TitleFromName(name string) string {
	runes := []rune(strings.ReplaceAll(name, "-", " "))
	for i, r := range runes {
		if i == 0 || !isWordRune(runes[i-1]) {
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
