package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	c "github.com/supportchat-dev/supportchat-go-backend/internal/config"
	"github.com/supportchat-dev/supportchat-go-backend/internal/database"
	"github.com/supportchat-dev/supportchat-go-backend/internal/logger"
	"github.com/supportchat-dev/supportchat-go-backend/internal/utils"
)

// Analyzer asks an OpenAI-compatible chat endpoint to summarize negative
// feedback into a structured quality report.
type Analyzer struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

type Issue struct {
	Category    string `json:"category"`
	Count       int    `json:"count"`
	Description string `json:"description"`
}

type Report struct {
	Summary           string   `json:"summary"`
	MainIssues        []Issue  `json:"mainIssues"`
	Recommendations   []string `json:"recommendations"`
	Patterns          []string `json:"patterns"`
	OverallAssessment string   `json:"overallAssessment"`
}

func NewAnalyzer() *Analyzer {
	config, _ := c.GetConfig()
	return &Analyzer{
		httpClient: &http.Client{Timeout: utils.ParseStringTime(config.LLM.Timeout)},
		baseURL:    strings.TrimSuffix(config.LLM.BaseURL, "/"),
		apiKey:     config.LLM.APIKey,
		model:      config.LLM.Model,
	}
}

// AnalyzeRatings builds the report for the negative subset of the given
// ratings. With no negative ratings there is nothing to send upstream.
func (a *Analyzer) AnalyzeRatings(ctx context.Context, ratings []database.Rating) (*Report, error) {
	negatives := make([]database.Rating, 0)
	for _, rating := range ratings {
		if rating.Rating == database.RatingNegative {
			negatives = append(negatives, rating)
		}
	}

	if len(negatives) == 0 {
		return &Report{
			Summary:           "No negative ratings to analyze.",
			MainIssues:        []Issue{},
			Recommendations:   []string{"Keep monitoring chatbot responses."},
			Patterns:          []string{},
			OverallAssessment: "The system is performing well.",
		}, nil
	}

	prompt, err := buildPrompt(negatives)
	if err != nil {
		return nil, err
	}

	content, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var report Report
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &report); err != nil {
		return nil, fmt.Errorf("fail to parse analysis response: %w", err)
	}
	return &report, nil
}

func buildPrompt(negatives []database.Rating) (string, error) {
	type sample struct {
		Question string `json:"question"`
		Response string `json:"response"`
		Feedback string `json:"feedback"`
	}

	samples := make([]sample, 0, len(negatives))
	for _, rating := range negatives {
		response := rating.MessageContent
		if len(response) > 300 {
			response = response[:300]
		}
		samples = append(samples, sample{
			Question: defaultString(rating.UserQuestion, "No question"),
			Response: defaultString(response, "No response"),
			Feedback: defaultString(rating.FeedbackText, "No specific feedback"),
		})
	}

	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a quality analyst for a support chatbot backed by a RAG pipeline.

Analyze the following negative user ratings and produce a structured report.

NEGATIVE RATING DATA:
%s

Respond with pure JSON (no markdown) using exactly this structure:
{
  "summary": "executive summary of the problems found, 2-3 sentences",
  "mainIssues": [{"category": "problem category", "count": estimated occurrences, "description": "short description"}],
  "recommendations": ["recommendation 1", "recommendation 2"],
  "patterns": ["detected pattern 1", "detected pattern 2"],
  "overallAssessment": "overall assessment of the RAG system"
}

Focus on recurring problem categories, actionable fixes, and which question topics fail most.`, data), nil
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.3,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fail to call analysis model: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.WarnF("Fail to close analysis response body, details: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("analysis model returned status %d: %s", resp.StatusCode, data)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("fail to decode analysis response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("analysis model returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// stripCodeFence tolerates models that wrap JSON in ```json fences despite
// the prompt.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
