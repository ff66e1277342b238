package visionsvc

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/vision"
)

var sendFunc = rest.SendWithContext // mockable

type (
	inlineData struct {
		MimeType string `json:"mime_type"`
		Data     string `json:"data"`
	}

	part struct {
		Text       string      `json:"text,omitempty"`
		InlineData *inlineData `json:"inline_data,omitempty"`
	}

	content struct {
		Parts []part `json:"parts"`
	}

	generationConfig struct {
		ResponseMimeType string  `json:"responseMimeType"`
		Temperature      float64 `json:"temperature"`
	}

	generateRequest struct {
		Contents         []content        `json:"contents"`
		GenerationConfig generationConfig `json:"generationConfig"`
	}

	generateResponse struct {
		Candidates []struct {
			Content      content `json:"content"`
			FinishReason string  `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
)

// GeminiProvider calls a `generateContent` multimodal REST endpoint.
type GeminiProvider struct {
	baseURL string
	model   string
	apiKey  string
	timeout time.Duration
	maxDim  int
	logger  core.Logger
}

var _ vision.Provider = (*GeminiProvider)(nil) // interface compliance check

func NewGeminiProvider(conf *core.Config, logger core.Logger) *GeminiProvider {
	return &GeminiProvider{
		baseURL: strings.TrimRight(conf.Vision.BaseURL, "/"),
		model:   conf.Vision.Model,
		apiKey:  conf.Vision.APIKey,
		timeout: conf.Vision.Timeout,
		maxDim:  conf.Vision.MaxImageDimension,
		logger:  logger,
	}
}

func (p *GeminiProvider) Generate(ctx context.Context, req vision.Request) (string, error) {
	if p.apiKey == "" {
		return "", &vision.ProviderError{Reason: "not configured", Err: vision.ErrMissingCredentials}
	}

	img, mimeType, err := PrepareImage(req.Image, p.maxDim)
	if err != nil {
		return "", core.NewFieldValidationError("image", "unsupported or corrupted image")
	}

	body, err := sonic.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: req.Prompt},
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(img)}},
			},
		}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshalling request")
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := sendFunc(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, p.model),
		Headers: map[string]string{
			"Content-Type":   "application/json",
			"x-goog-api-key": p.apiKey,
		},
		Body: body,
	})
	if err != nil {
		return "", &vision.ProviderError{Reason: "request failed", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &vision.ProviderError{
			Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Err:    errors.New(truncate(resp.Body, 200)),
		}
	}

	var gr generateResponse
	if err = sonic.UnmarshalString(resp.Body, &gr); err != nil {
		return "", &vision.ProviderError{Reason: "malformed envelope", Err: err}
	}
	if gr.PromptFeedback.BlockReason != "" {
		return "", &vision.ProviderError{Reason: "request blocked", Err: errors.New(gr.PromptFeedback.BlockReason)}
	}
	if len(gr.Candidates) == 0 {
		return "", &vision.ProviderError{Reason: "empty response"}
	}

	var text strings.Builder
	for _, pt := range gr.Candidates[0].Content.Parts {
		text.WriteString(pt.Text)
	}
	return text.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
