package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/vision"
)

var _ vision.Extractor = (*Client)(nil)

type inputContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type inputMessage struct {
	Role    string         `json:"role"`
	Content []inputContent `json:"content"`
}

type responsesRequest struct {
	Model       string         `json:"model"`
	Input       []inputMessage `json:"input"`
	Temperature float64        `json:"temperature"`
}

type responsesReply struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// text collects every output_text part in order.
func (r responsesReply) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	var b strings.Builder
	for _, item := range r.Output {
		for _, c := range item.Content {
			if c.Type == "output_text" {
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

// Extract sends the instruction and the JPEG-encoded image in one user turn
// and returns the model's text output.
func (c *Client) Extract(ctx context.Context, img image.Image, instruction string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", apperrors.NewUnauthorizedError("openai api key is not configured", nil)
	}
	rid := uuid.New().String()
	start := time.Now()
	log := c.log.WithFields(logrus.Fields{"req_id": rid, "model": c.cfg.Model})

	dataURL, err := vision.EncodeJPEGDataURL(img, c.cfg.JPEGQuality)
	if err != nil {
		return "", apperrors.NewProcessingError("failed to encode image", err)
	}

	body := responsesRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Input: []inputMessage{{
			Role: "user",
			Content: []inputContent{
				{Type: "input_text", Text: instruction},
				{Type: "input_image", ImageURL: dataURL},
			},
		}},
	}

	log.WithField("instruction_len", len(instruction)).Debug("Vision request started")
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/responses"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		log.WithError(err).WithField("elapsed_ms", time.Since(start).Milliseconds()).Error("Vision request failed")
		return "", err
	}

	var reply responsesReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", apperrors.NewProcessingError("failed to decode openai response", err)
	}
	text := strings.TrimSpace(reply.text())
	if text == "" {
		return "", apperrors.NewProcessingError("openai response has no output text", nil)
	}

	log.WithFields(logrus.Fields{
		"response_len": len(text),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	}).Info("Vision request completed")
	return text, nil
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("openai request failed", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.WithError(err).Warn("openai response body close error")
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("openai response read failed (status %d)", resp.StatusCode), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("openai status %d: %s", resp.StatusCode, raw), nil)
	}
	return raw, nil
}
