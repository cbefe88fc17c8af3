package successfactors

import (
	"bytes"
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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"clockysap/mapping"
)

const (
	DefaultEntitySet = "ExternalTimeData"
	odataPath        = "/odata/v2/"
	filterDateLayout = "2006-01-02T15:04:05"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OAuth2Config holds client credentials for the token endpoint.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

type ClientConfig struct {
	BaseURL   string
	EntitySet string
	CompanyID string
	Username  string
	Password  string
	OAuth2    *OAuth2Config
	// HTTPClient replaces the transport entirely, including OAuth2.
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	entitySet  string
	username   string
	password   string
	basicAuth  bool
	httpClient httpDoer
}

// NewClient builds a client. ctx is only used to build the OAuth2 token
// source and must outlive the client.
func NewClient(ctx context.Context, cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	entitySet := strings.Trim(strings.TrimSpace(cfg.EntitySet), "/")
	if entitySet == "" {
		entitySet = DefaultEntitySet
	}

	client := &HTTPClient{
		baseURL:   baseURL,
		entitySet: entitySet,
	}

	switch {
	case cfg.OAuth2 != nil:
		if strings.TrimSpace(cfg.OAuth2.TokenURL) == "" || strings.TrimSpace(cfg.OAuth2.ClientID) == "" {
			return nil, errors.New("oauth2 requires token url and client id")
		}
		if cfg.HTTPClient != nil {
			client.httpClient = cfg.HTTPClient
			break
		}
		creds := clientcredentials.Config{
			ClientID:     strings.TrimSpace(cfg.OAuth2.ClientID),
			ClientSecret: cfg.OAuth2.ClientSecret,
			TokenURL:     strings.TrimSpace(cfg.OAuth2.TokenURL),
		}
		if companyID := strings.TrimSpace(cfg.CompanyID); companyID != "" {
			creds.EndpointParams = url.Values{"company_id": {companyID}}
		}
		base := &http.Client{Timeout: 30 * time.Second}
		client.httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), creds.TokenSource(ctx))
	default:
		username := strings.TrimSpace(cfg.Username)
		if username == "" {
			return nil, errors.New("successfactors username is required for basic auth")
		}
		if companyID := strings.TrimSpace(cfg.CompanyID); companyID != "" && !strings.Contains(username, "@") {
			username += "@" + companyID
		}
		client.username = username
		client.password = cfg.Password
		client.basicAuth = true
		client.httpClient = cfg.HTTPClient
		if client.httpClient == nil {
			client.httpClient = &http.Client{Timeout: 30 * time.Second}
		}
	}

	return client, nil
}

type recordPayload struct {
	ExternalCode string  `json:"externalCode"`
	UserID       string  `json:"userId"`
	StartDate    string  `json:"startDate"`
	Hours        float64 `json:"hours"`
	CostCenter   string  `json:"costCenter"`
	TimeType     string  `json:"timeType"`
	Comment      string  `json:"comment,omitempty"`
}

type listResponse struct {
	D struct {
		Results []json.RawMessage `json:"results"`
	} `json:"d"`
}

type odataError struct {
	Error struct {
		Code    string `json:"code"`
		Message struct {
			Value string `json:"value"`
		} `json:"message"`
	} `json:"error"`
}

// FindRecord reports whether a record for key already exists.
func (c *HTTPClient) FindRecord(ctx context.Context, key mapping.NaturalKey) (bool, error) {
	day, err := time.Parse("2006-01-02", key.Date)
	if err != nil {
		return false, fmt.Errorf("invalid record date %q: %w", key.Date, err)
	}

	query := url.Values{}
	query.Set("$filter", BuildFilter(key.EmployeeID, day, key.CostCenter))
	query.Set("$top", "1")
	query.Set("$format", "json")

	var out listResponse
	if err := c.doJSON(ctx, http.MethodGet, c.entitySet, query, nil, &out); err != nil {
		return false, err
	}
	return len(out.D.Results) > 0, nil
}

// CreateRecord posts one record to the entity set.
func (c *HTTPClient) CreateRecord(ctx context.Context, record mapping.TargetRecord) error {
	payload := recordPayload{
		ExternalCode: record.ExternalCode,
		UserID:       record.EmployeeID,
		StartDate:    FormatDate(record.Date),
		Hours:        record.Hours,
		CostCenter:   record.CostCenter,
		TimeType:     record.TimeType,
		Comment:      record.Comment,
	}
	return c.doJSON(ctx, http.MethodPost, c.entitySet, nil, payload, nil)
}

// BuildFilter renders the OData $filter expression for one natural key.
func BuildFilter(employeeID string, day time.Time, costCenter string) string {
	return fmt.Sprintf(
		"userId eq %s and startDate eq datetime'%s' and costCenter eq %s",
		quote(employeeID),
		calendarDay(day).Format(filterDateLayout),
		quote(costCenter),
	)
}

// FormatDate renders a calendar day in the OData v2 JSON date format.
func FormatDate(day time.Time) string {
	return "/Date(" + strconv.FormatInt(calendarDay(day).UnixMilli(), 10) + ")/"
}

func calendarDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (c *HTTPClient) doJSON(ctx context.Context, method, entity string, query url.Values, body any, out any) error {
	endpoint := odataPath + entity
	var requestBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body for %s %s: %w", method, endpoint, err)
		}
		requestBody = bytes.NewReader(payload)
	}

	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, requestBody)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.basicAuth {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request %s %s failed with status %d: %s",
			method,
			endpoint,
			resp.StatusCode,
			errorMessage(responseBody),
		)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpoint, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var parsed odataError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message.Value != "" {
		if parsed.Error.Code != "" {
			return parsed.Error.Code + ": " + parsed.Error.Message.Value
		}
		return parsed.Error.Message.Value
	}
	return strings.TrimSpace(string(body))
}
