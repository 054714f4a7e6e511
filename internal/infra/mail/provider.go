// Package mail implements the outbound email pipeline: publishers that enqueue
// mail events on the API side and the SMTP mailer consumed by the worker.
package mail

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.uber.org/fx"

	"procura/config"
	"procura/internal/domain/service"
)

// Supported publisher providers.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderNoop   = "noop"
)

// noopPublisher is a no-op implementation when the mail pipeline is disabled
type noopPublisher struct {
	logger *slog.Logger
}

func (p *noopPublisher) PublishMailEvent(ctx context.Context, event *service.MailEvent) error {
	p.logger.Debug("[NoopMail] Event publishing disabled, skipping",
		slog.String("kind", event.Kind),
		slog.String("recipient", event.Recipient),
	)

	return nil
}

func (p *noopPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for MailPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewMailPublisher creates a MailPublisher based on configuration
func NewMailPublisher(params PublisherParams) (service.MailPublisher, error) {
	logger := params.Logger
	if params.Config.Mail == nil || params.Config.Mail.PubSub.Provider == "" || params.Config.Mail.PubSub.Provider == ProviderNoop {
		logger.Info("Mail pipeline not configured, using no-op publisher")

		return &noopPublisher{logger: logger}, nil
	}
	cfg := params.Config.Mail.PubSub

	var publisher service.MailPublisher
	var err error

	switch cfg.Provider {
	case ProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("local endpoint is required for local provider")
		}
		logger.Info("Using local HTTP publisher for mail events",
			slog.String("endpoint", cfg.LocalEndpoint),
		)

		publisher = NewLocalHTTPPublisher(cfg.LocalEndpoint, logger)

	case ProviderGoogle:
		if cfg.ProjectID == "" {
			return nil, errors.New("project ID is required for google provider")
		}
		if cfg.TopicID == "" {
			return nil, errors.New("topic ID is required for google provider")
		}
		logger.Info("Using Google Pub/Sub publisher for mail events",
			slog.String("project_id", cfg.ProjectID),
			slog.String("topic_id", cfg.TopicID),
		)

		publisher, err = NewGooglePubSubPublisher(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}

	default:
		return nil, errors.Errorf("unknown mail publisher provider: %s", cfg.Provider)
	}

	// Register lifecycle hook to close publisher on shutdown
	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing MailPublisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

// Module provides the mail FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewMailPublisher),
)
