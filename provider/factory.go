package provider

import (
	"strings"

	"go.uber.org/zap"

	"github.com/AlhasanIQ/oriki/config"
)

// New builds the provider for cfg. A non-empty baseURL overrides both the
// environment and the configured service address.
func New(cfg config.Config, baseURL string, logger *zap.Logger) (Provider, error) {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		var err error
		base, err = config.EffectiveBaseURL(cfg)
		if err != nil {
			return nil, err
		}
	}
	return NewAPI(base, logger)
}
