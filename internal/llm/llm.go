// File path: internal/llm/llm.go
package llm

import (
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/openassess/asset-history/internal/common"
	"github.com/openassess/asset-history/internal/config"
	"github.com/openassess/asset-history/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// NewProvider selects the completion backend from configuration. Without an
// API key the summarizer simply has no abstractive step; returning nil keeps
// that state explicit rather than hiding it behind a stub.
func NewProvider(cfg config.LLMConfig) Provider {
	logger := common.Logger()
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		logger.Warn("llm: no API key configured; abstractive summaries disabled")
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	logger.Info("llm: OpenAI provider selected")
	return providers.NewOpenAIProvider(client, cfg.Model, cfg.MaxTokens)
}
