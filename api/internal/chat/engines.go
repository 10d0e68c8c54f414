package chat

import (
	"strings"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/config"
)

// NewEngines builds every engine the configuration has credentials for.
// Engines without credentials stay nil so GetEngine reports them.
func NewEngines(cfg *config.Config, log *logrus.Entry) *Engines {
	var e Engines
	if cfg.OpenAI.Validate() == nil {
		az := NewAzure(cfg.OpenAI.Endpoint, cfg.OpenAI.Key, cfg.OpenAI.APIVersion, cfg.OpenAI.Deployment, log)
		az.CompletionDeployment = cfg.OpenAI.CompletionDeployment
		e.Azure = az
	}
	if strings.TrimSpace(cfg.Gemini.APIKey) != "" {
		e.Gemini = NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model, log)
	}
	return &e
}
