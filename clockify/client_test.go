package clockify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"clockysap/internal/timeutil"
)

type fakeDoer struct {
	fn func(*http.Request) (*http.Response, error)
}

func (f fakeDoer) Do(req *http.Request) (*http.Response, error) {
	return f.fn(req)
}

func jsonResponse(payload any) *http.Response {
	body, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Header:     make(http.Header),
	}
}

func statusResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func apiEntry(id, start, end, project string) TimeEntry {
	return TimeEntry{
		ID:           id,
		Description:  " entry " + id + " ",
		ProjectID:    "p-" + project,
		TimeInterval: TimeInterval{Start: start, End: end},
		Project:      &namedRef{ID: "p-" + project, Name: project},
	}
}

func TestListTimeEntries_ResolvesUserAndPages(t *testing.T) {
	t.Parallel()

	pages := make([]string, 0, 2)
	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("X-Api-Key") != "secret" {
			t.Fatalf("missing api key header")
		}
		switch r.URL.Path {
		case "/api/v1/user":
			return jsonResponse(User{ID: "u1", DefaultWorkspace: "w-default", ActiveWorkspace: "w1"}), nil
		case "/api/v1/workspaces/w1/user/u1/time-entries":
			query := r.URL.Query()
			if query.Get("hydrated") != "true" {
				t.Fatalf("expected hydrated=true")
			}
			if query.Get("page-size") != "2" {
				t.Fatalf("unexpected page size: %q", query.Get("page-size"))
			}
			if query.Get("start") != "2024-05-01T00:00:00Z" || query.Get("end") != "2024-05-31T23:59:59Z" {
				t.Fatalf("unexpected window: %s .. %s", query.Get("start"), query.Get("end"))
			}
			pages = append(pages, query.Get("page"))
			switch query.Get("page") {
			case "1":
				return jsonResponse([]TimeEntry{
					apiEntry("a", "2024-05-01T08:00:00Z", "2024-05-01T16:00:00Z", "Proj A"),
					apiEntry("b", "2024-05-02T08:00:00Z", "2024-05-02T12:00:00Z", "Proj B"),
				}), nil
			default:
				running := apiEntry("c", "2024-05-03T08:00:00Z", "", "Proj A")
				return jsonResponse([]TimeEntry{running}), nil
			}
		default:
			return nil, fmt.Errorf("unexpected request %s %s", r.Method, r.URL.String())
		}
	}}

	client, err := NewClient(ClientConfig{
		BaseURL:           "https://api.clockify.me/api/v1/",
		APIKey:            "secret",
		PageSize:          2,
		RequestsPerSecond: 1000,
		Location:          time.UTC,
		HTTPClient:        doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	r := timeutil.MonthRange(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	entries, err := client.ListTimeEntries(context.Background(), r)
	if err != nil {
		t.Fatalf("list time entries: %v", err)
	}
	if strings.Join(pages, ",") != "1,2" {
		t.Fatalf("unexpected pages: %v", pages)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.ProjectName != "Proj A" || first.Description != "entry a" || first.Source != "clockify" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Duration != 8*time.Hour {
		t.Fatalf("expected 8h duration, got %s", first.Duration)
	}
	if !entries[2].Running() {
		t.Fatalf("expected entry without end to be running")
	}
}

func TestListTimeEntries_UsesConfiguredIdentity(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/v1/workspaces/ws/user/me/time-entries" {
			return nil, fmt.Errorf("unexpected request %s", r.URL.Path)
		}
		return jsonResponse([]TimeEntry{
			apiEntry("outside", "2024-04-30T08:00:00Z", "2024-04-30T09:00:00Z", "Proj A"),
			apiEntry("inside", "2024-05-10T08:00:00Z", "2024-05-10T09:00:00Z", "Proj A"),
		}), nil
	}}

	client, err := NewClient(ClientConfig{
		APIKey:            "secret",
		WorkspaceID:       "ws",
		UserID:            "me",
		RequestsPerSecond: 1000,
		Location:          time.UTC,
		HTTPClient:        doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	r := timeutil.MonthRange(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	entries, err := client.ListTimeEntries(context.Background(), r)
	if err != nil {
		t.Fatalf("list time entries: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "inside" {
		t.Fatalf("expected only in-range entry, got %+v", entries)
	}
}

func TestListTimeEntries_WindowFollowsClientLocation(t *testing.T) {
	t.Parallel()

	berlin := time.FixedZone("CEST", 2*60*60)
	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		query := r.URL.Query()
		if query.Get("start") != "2024-04-30T22:00:00Z" || query.Get("end") != "2024-05-31T21:59:59Z" {
			t.Fatalf("unexpected window: %s .. %s", query.Get("start"), query.Get("end"))
		}
		return jsonResponse([]TimeEntry{}), nil
	}}

	client, err := NewClient(ClientConfig{
		APIKey:            "secret",
		WorkspaceID:       "ws",
		UserID:            "me",
		RequestsPerSecond: 1000,
		Location:          berlin,
		HTTPClient:        doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	r := timeutil.MonthRange(time.Date(2024, 5, 1, 0, 0, 0, 0, berlin))
	if _, err := client.ListTimeEntries(context.Background(), r); err != nil {
		t.Fatalf("list time entries: %v", err)
	}
}

func TestListTimeEntries_StatusError(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		return statusResponse(http.StatusUnauthorized, `{"message":"Full authentication is required"}`), nil
	}}
	client, err := NewClient(ClientConfig{
		APIKey:            "bad",
		WorkspaceID:       "ws",
		UserID:            "me",
		RequestsPerSecond: 1000,
		HTTPClient:        doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.ListTimeEntries(context.Background(), timeutil.CurrentMonth(time.Now()))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "Full authentication") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected missing api key error")
	}
	if _, err := NewClient(ClientConfig{APIKey: "k", BaseURL: "not a url"}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}

func TestTimeEntryToEntry_InvalidStart(t *testing.T) {
	t.Parallel()

	_, err := TimeEntry{ID: "x", TimeInterval: TimeInterval{Start: "yesterday"}}.ToEntry(time.UTC)
	if err == nil {
		t.Fatalf("expected parse error")
	}
}
