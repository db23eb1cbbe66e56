// AngelaMos | 2026
// gemini.go

package summary

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/carterperez-dev/bloghub/internal/config"
	"github.com/carterperez-dev/bloghub/internal/core"
)

const (
	promptPrefix   = "Summarize this blog post in 3-5 lines:\n\n"
	maxPromptRunes = 30000
)

// GeminiClient builds the genai client on first use so a process without
// an API key still starts and simply falls back.
type GeminiClient struct {
	cfg     config.AIConfig
	timeout time.Duration

	once   sync.Once
	models *genai.Models
	err    error
}

func NewGeminiClient(cfg config.AIConfig) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GeminiClient{cfg: cfg, timeout: timeout}
}

func (c *GeminiClient) Summarize(ctx context.Context, text string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("gemini: api key not set: %w", core.ErrUpstream)
	}

	models, err := c.client(ctx)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := models.GenerateContent(
		ctx,
		c.cfg.Model,
		genai.Text(promptPrefix+truncate(text, maxPromptRunes)),
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("gemini: %s: %w", err.Error(), core.ErrUpstream)
	}

	var out strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil {
				out.WriteString(p.Text)
			}
		}
	}

	text = strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty summary: %w", core.ErrUpstream)
	}

	return text, nil
}

func (c *GeminiClient) client(ctx context.Context) (*genai.Models, error) {
	c.once.Do(func() {
		cc := &genai.ClientConfig{
			APIKey:     c.cfg.APIKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: &http.Client{Timeout: c.timeout},
		}
		if base, version, ok := splitEndpoint(c.cfg.Endpoint); ok {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: base, APIVersion: version}
		}

		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			c.err = fmt.Errorf("gemini: new client: %w: %w", core.ErrUpstream, err)
			return
		}
		c.models = client.Models
	})
	return c.models, c.err
}

// splitEndpoint turns "https://host/v1beta" into the base URL and API
// version genai expects. An empty endpoint keeps the SDK defaults.
func splitEndpoint(endpoint string) (string, string, bool) {
	endpoint = strings.TrimRight(endpoint, "/")
	if endpoint == "" {
		return "", "", false
	}

	i := strings.LastIndex(endpoint, "/")
	if i > len("https://") && strings.HasPrefix(endpoint[i+1:], "v1") {
		return endpoint[:i] + "/", endpoint[i+1:], true
	}
	return endpoint + "/", "", true
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes])
}
