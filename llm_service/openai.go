package llm_service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/smoreau/docforge/retry"
)

type OpenAIService struct {
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOpenAIService(logger *zap.Logger) *OpenAIService {
	return &OpenAIService{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     logger,
	}
}

const (
	maxAttempts    = 3
	baseRetryDelay = 2 * time.Second
)

func (s *OpenAIService) CallLLM(ctx context.Context, config map[string]interface{}, prompt string) (string, error) {
	var response string

	err := retry.Do(ctx, maxAttempts, baseRetryDelay, func(ctx context.Context) error {
		var callErr error
		response, callErr = s.callOpenAI(ctx, config, prompt)
		if callErr != nil {
			s.logger.Warn("OpenAI call attempt failed",
				zap.Error(callErr))
		}
		return callErr
	})
	if err != nil {
		s.logger.Error("Error calling OpenAI API after multiple attempts",
			zap.Int("attempts", maxAttempts),
			zap.Error(err))
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}

	return response, nil
}

func (s *OpenAIService) callOpenAI(ctx context.Context, config map[string]interface{}, prompt string) (string, error) {
	apiURL, ok := config["api_url"].(string)
	if !ok {
		return "", fmt.Errorf("api_url not found in config")
	}

	apiKey, ok := config["api_key"].(string)
	if !ok {
		return "", fmt.Errorf("api_key not found in config")
	}

	modelName, ok := config["model_name"].(string)
	if !ok {
		return "", fmt.Errorf("model_name not found in config")
	}

	systemPrompt, ok := config["system_prompt"].(string)
	if !ok || systemPrompt == "" {
		systemPrompt = "You are a helpful assistant."
	}

	messages := []map[string]string{
		{"role": "system", "content": systemPrompt},
		{"role": "user", "content": prompt},
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":    modelName,
		"messages": messages,
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d from OpenAI API", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("error unmarshaling response: %w", err)
	}

	choices, ok := result["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return "", fmt.Errorf("unexpected response format from OpenAI API")
	}

	firstChoice, ok := choices[0].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected choice format in OpenAI API response")
	}

	message, ok := firstChoice["message"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("message not found in OpenAI API response")
	}

	content, ok := message["content"].(string)
	if !ok {
		return "", fmt.Errorf("content not found in OpenAI API response")
	}

	return content, nil
}
