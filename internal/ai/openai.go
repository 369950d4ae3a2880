package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/claimsflow/backend/internal/models"
)

const claimSystemPrompt = `You are an expert insurance claims analyst. Analyze the provided claim data and generate detailed suggestions.
Consider claim amount, potential fraud indicators, individual item analysis, and the overall recommendation.
If a video_analysis field is provided, incorporate those findings.
Respond with a JSON object {"suggestions": [...]} where each suggestion has:
type (approve_claim, deny_claim, request_info, flag_fraud, adjust_amount, replace_item, repair_item),
description, confidence_score (0.0 to 1.0), explanation, suggested_action (object).`

const videoSystemPrompt = `You are an expert insurance claims analyst. Analyze the provided video evidence and report
visible damage, property condition, fraud indicators, and evidence quality as a JSON object with keys
damage_assessment, property_condition, fraud_indicators, evidence_quality.`

// OpenAIAdapter calls an OpenAI-compatible chat completions API to
// generate suggestions and video analysis.
type OpenAIAdapter struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
	Messages       []chatMessage `json:"messages"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type candidate struct {
	Type            string          `json:"type"`
	Description     string          `json:"description"`
	ConfidenceScore float64         `json:"confidence_score"`
	Explanation     string          `json:"explanation"`
	SuggestedAction json.RawMessage `json:"suggested_action"`
}

func (a OpenAIAdapter) AnalyzeClaim(ctx context.Context, claim models.Claim) ([]models.Suggestion, error) {
	payload := map[string]any{
		"policy_number":     claim.PolicyNumber,
		"policyholder_name": claim.PolicyholderName,
		"date_of_loss":      claim.DateOfLoss,
		"description":       claim.Description,
		"total_amount":      claim.TotalAmount,
		"incident_location": claim.IncidentLocation,
		"items":             claim.Items,
	}
	if len(claim.VideoAnalysis) > 0 {
		payload["video_analysis"] = claim.VideoAnalysis
	}
	user, _ := json.Marshal(payload)

	content, err := a.complete(ctx, "analyze claim", chatRequest{
		Model:          a.Model,
		Temperature:    0.3,
		ResponseFormat: &formatSpec{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: claimSystemPrompt},
			{Role: "user", Content: string(user)},
		},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Suggestions []candidate `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, &UpstreamError{Op: "analyze claim", Err: fmt.Errorf("malformed model response: %w", err)}
	}

	out := make([]models.Suggestion, 0, len(parsed.Suggestions))
	for _, c := range parsed.Suggestions {
		out = append(out, models.Suggestion{
			Type:            models.SuggestionType(c.Type),
			Description:     c.Description,
			ConfidenceScore: c.ConfidenceScore,
			AIExplanation:   c.Explanation,
			SuggestedAction: c.SuggestedAction,
			ModelVersion:    a.Model,
		})
	}
	return out, nil
}

func (a OpenAIAdapter) AnalyzeVideo(ctx context.Context, claim models.Claim, video []byte) (json.RawMessage, error) {
	content, err := a.complete(ctx, "analyze video", chatRequest{
		Model:       a.Model,
		Temperature: 0.3,
		MaxTokens:   1000,
		Messages: []chatMessage{
			{Role: "system", Content: videoSystemPrompt},
			{Role: "user", Content: []map[string]any{
				{
					"type": "image_url",
					"image_url": map[string]string{
						"url": "data:video/mp4;base64," + base64.StdEncoding.EncodeToString(video),
					},
				},
			}},
		},
	})
	if err != nil {
		return nil, err
	}

	if !json.Valid([]byte(content)) {
		return nil, &UpstreamError{Op: "analyze video", Err: errors.New("malformed model response")}
	}
	return json.RawMessage(content), nil
}

func (a OpenAIAdapter) complete(ctx context.Context, op string, reqBody chatRequest) (string, error) {
	b, _ := json.Marshal(reqBody)
	url := strings.TrimRight(a.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(a.APIKey) != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	client := a.Client
	if client == nil {
		timeout := 45 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
				timeout = remaining
			}
		}
		client = &http.Client{Timeout: timeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", &UpstreamError{Op: op, Err: errors.New("request timed out")}
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", &UpstreamError{Op: op, Err: errors.New("request timed out")}
		}
		return "", &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{Op: op, Err: fmt.Errorf("http error: %s", resp.Status)}
	}

	var res chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}
	if len(res.Choices) == 0 {
		return "", &UpstreamError{Op: op, Err: errors.New("empty model response")}
	}
	return res.Choices[0].Message.Content, nil
}
