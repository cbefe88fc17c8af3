package clockify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"clockysap/internal/timeutil"
	"clockysap/timeentry"
)

const (
	DefaultBaseURL  = "https://api.clockify.me/api/v1"
	defaultPageSize = 200
	defaultRPS      = 10
	maxPages        = 1000
	queryTimeLayout = "2006-01-02T15:04:05Z"
	sourceName      = "clockify"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL           string
	APIKey            string
	WorkspaceID       string
	UserID            string
	PageSize          int
	RequestsPerSecond float64
	Location          *time.Location
	HTTPClient        httpDoer
}

type HTTPClient struct {
	baseURL     string
	apiKey      string
	workspaceID string
	userID      string
	pageSize    int
	location    *time.Location
	limiter     *rate.Limiter
	httpClient  httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("clockify api key is required")
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		workspaceID: strings.TrimSpace(cfg.WorkspaceID),
		userID:      strings.TrimSpace(cfg.UserID),
		pageSize:    pageSize,
		location:    location,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		httpClient:  doer,
	}, nil
}

type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	DefaultWorkspace string `json:"defaultWorkspace"`
	ActiveWorkspace  string `json:"activeWorkspace"`
}

type TimeInterval struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration string `json:"duration"`
}

type namedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TimeEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	ProjectID    string       `json:"projectId"`
	TaskID       string       `json:"taskId"`
	Billable     bool         `json:"billable"`
	TimeInterval TimeInterval `json:"timeInterval"`
	Project      *namedRef    `json:"project"`
	Task         *namedRef    `json:"task"`
}

// ToEntry converts the API shape into the normalized entry, in loc.
func (e TimeEntry) ToEntry(loc *time.Location) (timeentry.Entry, error) {
	start, err := parseTimestamp(e.TimeInterval.Start)
	if err != nil {
		return timeentry.Entry{}, fmt.Errorf("time entry %s: start: %w", e.ID, err)
	}
	entry := timeentry.Entry{
		ID:          e.ID,
		Start:       start.In(loc),
		ProjectID:   e.ProjectID,
		TaskID:      e.TaskID,
		Description: strings.TrimSpace(e.Description),
		Billable:    e.Billable,
		Source:      sourceName,
	}
	if strings.TrimSpace(e.TimeInterval.End) != "" {
		end, err := parseTimestamp(e.TimeInterval.End)
		if err != nil {
			return timeentry.Entry{}, fmt.Errorf("time entry %s: end: %w", e.ID, err)
		}
		entry.End = end.In(loc)
		entry.Duration = end.Sub(start)
	}
	if e.Project != nil {
		entry.ProjectName = strings.TrimSpace(e.Project.Name)
	}
	if e.Task != nil {
		entry.TaskName = strings.TrimSpace(e.Task.Name)
	}
	return entry, nil
}

func (c *HTTPClient) GetCurrentUser(ctx context.Context) (User, error) {
	var out User
	if err := c.doJSON(ctx, "/user", nil, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// ListTimeEntries pages through the user's entries whose start falls in r.
func (c *HTTPClient) ListTimeEntries(ctx context.Context, r timeutil.Range) ([]timeentry.Entry, error) {
	workspaceID, userID, err := c.identity(ctx)
	if err != nil {
		return nil, err
	}

	window := timeutil.Range{
		Start: time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, c.location),
		End:   time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, c.location),
	}
	start := window.Start
	end := window.EndExclusive().Add(-time.Second)
	path := fmt.Sprintf(
		"/workspaces/%s/user/%s/time-entries",
		url.PathEscape(workspaceID),
		url.PathEscape(userID),
	)

	out := make([]timeentry.Entry, 0, 64)
	for page := 1; page <= maxPages; page++ {
		query := url.Values{}
		query.Set("start", start.UTC().Format(queryTimeLayout))
		query.Set("end", end.UTC().Format(queryTimeLayout))
		query.Set("hydrated", "true")
		query.Set("page", strconv.Itoa(page))
		query.Set("page-size", strconv.Itoa(c.pageSize))

		var batch []TimeEntry
		if err := c.doJSON(ctx, path, query, &batch); err != nil {
			return nil, err
		}
		for _, item := range batch {
			entry, err := item.ToEntry(c.location)
			if err != nil {
				return nil, err
			}
			if !r.Contains(entry.Start) {
				continue
			}
			out = append(out, entry)
		}
		if len(batch) < c.pageSize {
			return out, nil
		}
	}
	return nil, fmt.Errorf("time entry listing exceeded %d pages", maxPages)
}

func (c *HTTPClient) identity(ctx context.Context) (string, string, error) {
	if c.workspaceID != "" && c.userID != "" {
		return c.workspaceID, c.userID, nil
	}
	user, err := c.GetCurrentUser(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolve clockify user: %w", err)
	}
	if c.userID == "" {
		c.userID = user.ID
	}
	if c.workspaceID == "" {
		c.workspaceID = firstNonEmpty(user.ActiveWorkspace, user.DefaultWorkspace)
	}
	if c.workspaceID == "" || c.userID == "" {
		return "", "", errors.New("clockify user has no workspace; set clockify.workspace_id")
	}
	return c.workspaceID, c.userID, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, endpointPath string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	target := c.baseURL + endpointPath
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request GET %s: %w", endpointPath, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request GET %s failed: %w", endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request GET %s failed with status %d: %s",
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response GET %s: %w", endpointPath, err)
	}
	return nil
}

func parseTimestamp(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
