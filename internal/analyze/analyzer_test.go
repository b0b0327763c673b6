package analyze

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
)

func TestAnalyzeRatingsNoNegatives(t *testing.T) {
	a := &Analyzer{}

	report, err := a.AnalyzeRatings(context.Background(), []database.Rating{
		{SessionID: "s1", MessageID: "m1", UserID: "u1", Rating: database.RatingPositive},
	})
	if err != nil {
		t.Fatalf("Except report without upstream call, but got %v", err)
	}
	if report.Summary == "" || report.OverallAssessment == "" {
		t.Fatalf("Except healthy default report, but got %+v", report)
	}
}

func TestAnalyzeRatingsCallsModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token")
		}
		reportJSON := `{"summary":"bad answers","mainIssues":[{"category":"retrieval","count":2,"description":"wrong documents"}],"recommendations":["fix index"],"patterns":["pricing questions"],"overallAssessment":"needs work"}`
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "```json\n" + reportJSON + "\n```"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := &Analyzer{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    server.URL,
		apiKey:     "test-key",
		model:      "test-model",
	}

	report, err := a.AnalyzeRatings(context.Background(), []database.Rating{
		{SessionID: "s1", MessageID: "m1", UserID: "u1", Rating: database.RatingNegative, FeedbackText: "wrong answer"},
	})
	if err != nil {
		t.Fatalf("Except analysis to succeed, but got %v", err)
	}
	if report.Summary != "bad answers" {
		t.Fatalf("Except parsed summary, but got %q", report.Summary)
	}
	if len(report.MainIssues) != 1 || report.MainIssues[0].Category != "retrieval" {
		t.Fatalf("Except parsed issues, but got %+v", report.MainIssues)
	}
}

func TestAnalyzeRatingsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	a := &Analyzer{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    server.URL,
	}

	_, err := a.AnalyzeRatings(context.Background(), []database.Rating{
		{SessionID: "s1", MessageID: "m1", UserID: "u1", Rating: database.RatingNegative},
	})
	if err == nil {
		t.Fatal("Except upstream error surfaced, but got nil")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, test := range tests {
		if got := stripCodeFence(test.in); got != test.expected {
			t.Errorf("stripCodeFence(%q): expected %q, got %q", test.in, test.expected, got)
		}
	}
}
