// Package advisor asks an OpenAI-compatible model for a second opinion on a
// proposed rebalance.
package advisor

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/logger"
)

type Client struct {
	client *openai.Client
	model  string
	cfg    config.AdvisorConfig
	logger *logger.Logger
}

func NewClient(cfg config.AdvisorConfig, log *logger.Logger) *Client {
	ocfg := openai.DefaultConfig(cfg.APIKey)
	ocfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(ocfg.BaseURL, "/v1") {
		ocfg.BaseURL += "/v1"
	}

	return &Client{
		client: openai.NewClientWithConfig(ocfg),
		model:  cfg.Model,
		cfg:    cfg,
		logger: log,
	}
}

// Review returns the parsed opinion together with the raw model output.
func (c *Client) Review(ctx context.Context, req *Request) (*Review, string, error) {
	if c.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout(c.cfg))
		defer cancel()
	}

	userPrompt := BuildUserPrompt(req)

	c.logger.Info("sending rebalance review request",
		"profile", req.Profile.Name,
		"orders", len(req.Plan.Orders))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("advisor API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, "", fmt.Errorf("advisor returned no choices")
	}

	rawResponse := resp.Choices[0].Message.Content
	c.logger.Info("received advisor response", "length", len(rawResponse))
	c.logger.Debug("advisor raw response", "content", rawResponse)

	review, err := ParseReview(rawResponse)
	if err != nil {
		return nil, rawResponse, fmt.Errorf("parse advisor response: %w", err)
	}

	return review, rawResponse, nil
}
