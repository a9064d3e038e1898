package bootstrap

import (
	"context"
	"fmt"
	"strings"

	appconfig "github.com/dgs-intellisol/nexuscrux-website/internal/config"
	"github.com/dgs-intellisol/nexuscrux-website/internal/notify"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// BuildEmailSender selects the sender named by NOTIFY_PROVIDER. Providers
// missing credentials fall back to the logging stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, string, error) {
	if cfg == nil {
		return nil, "", fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.NotifyProvider)) {
	case notify.ProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY empty; using stub sender")
			return notify.NewLogSender(logger), notify.ProviderNone, nil
		}
		return sender, notify.ProviderSendGrid, nil

	case notify.ProviderSES:
		sesCfg := notify.SESConfig{
			FromEmail:        cfg.SESFromEmail,
			FromName:         cfg.SendGridFromName,
			Region:           cfg.AWSRegion,
			AccessKeyID:      cfg.AWSAccessKeyID,
			SecretAccessKey:  cfg.AWSSecretAccessKey,
			EndpointOverride: cfg.AWSEndpointOverride,
		}
		if strings.TrimSpace(sesCfg.FromEmail) == "" {
			logger.Warn("ses selected but SES_FROM_EMAIL empty; using stub sender")
			return notify.NewLogSender(logger), notify.ProviderNone, nil
		}
		client, err := notify.NewSESClient(ctx, sesCfg)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: %w", err)
		}
		return notify.NewSESSender(client, sesCfg, logger), notify.ProviderSES, nil
	}
	return notify.NewLogSender(logger), notify.ProviderNone, nil
}

// BuildNotifier wraps the sender in the sales-inbox notification service.
// It returns nil when no recipient is configured.
func BuildNotifier(sender notify.EmailSender, cfg *appconfig.Config, logger *logging.Logger) *notify.Service {
	if cfg == nil {
		return nil
	}
	return notify.NewService(sender, notify.ParseRecipients(cfg.NotifyToEmail), logger)
}
