// Package handler contains the Pub/Sub push handlers for the mail worker.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"procura/config"
	deliverycontext "procura/internal/delivery/context"
	"procura/internal/domain/service"
	"procura/internal/infra/mail"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError wraps an error to indicate it should trigger a Pub/Sub retry
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// newRetryableError wraps an error as retryable
func newRetryableError(err error) error {
	return &retryableError{err: err}
}

// isRetryableError checks if an error is retryable
func isRetryableError(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

const (
	smtpRetryAttempts = 3
	smtpRetryBase     = 2 * time.Second
)

// MailHandler handles Pub/Sub push messages for outbound email delivery
type MailHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	mailer         service.Mailer
}

// MailHandlerParams holds dependencies for the MailHandler
type MailHandlerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Mailer service.Mailer
}

// NewMailHandler creates a new Pub/Sub push handler for mail events
func NewMailHandler(params MailHandlerParams) *MailHandler {
	// Only Google push requests carry a verifiable OIDC token
	verifyPushAuth := params.Config.Mail != nil &&
		params.Config.Mail.PubSub.Provider == mail.ProviderGoogle &&
		params.Config.Env.Env != "develop"

	return &MailHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		mailer:         params.Mailer,
	}
}

// HandlePush handles incoming Pub/Sub push messages
func (h *MailHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	// Verify Pub/Sub token in production for Google provider
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	// Parse Pub/Sub message
	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Decode base64 message data
	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Parse mail event
	var event service.MailEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse mail event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	// Extract request_id for distributed tracing
	requestID := h.extractRequestID(ctx, &pushMsg, &event)

	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	reqLogger.Info("[Worker] Processing mail event",
		slog.String("kind", event.Kind),
		slog.String("recipient", event.Recipient),
	)

	if err := h.deliver(ctx, &event); err != nil {
		reqLogger.Error("[Worker] Failed to deliver mail",
			slog.String("kind", event.Kind),
			slog.String("recipient", event.Recipient),
			slog.Any("error", err),
			slog.Bool("retryable", isRetryableError(err)),
		)
		// Return 503 for retryable errors to trigger Pub/Sub retry
		// Return 200 for non-retryable errors to prevent infinite retries
		if isRetryableError(err) {
			return c.NoContent(http.StatusServiceUnavailable)
		}

		return c.NoContent(http.StatusOK)
	}

	reqLogger.Info("[Worker] Mail delivered successfully",
		slog.String("kind", event.Kind),
		slog.String("recipient", event.Recipient),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID extracts request_id from message attributes, event, or generates a new one
func (h *MailHandler) extractRequestID(ctx context.Context, pushMsg *PubSubMessage, event *service.MailEvent) string {
	if requestID, ok := pushMsg.Message.Attributes["request_id"]; ok && requestID != "" {
		return requestID
	}

	if event.RequestID != "" {
		return event.RequestID
	}

	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

// deliver dispatches one mail event to the SMTP mailer, retrying transient
// failures before handing the decision back to Pub/Sub.
func (h *MailHandler) deliver(ctx context.Context, event *service.MailEvent) error {
	if event.Recipient == "" || event.Token == "" {
		return errors.New("mail event is missing recipient or token")
	}

	var send func(ctx context.Context) error
	switch event.Kind {
	case service.MailKindVerification:
		send = func(ctx context.Context) error {
			return h.mailer.SendVerificationEmail(ctx, event.Recipient, event.Token)
		}
	case service.MailKindPasswordReset:
		send = func(ctx context.Context) error {
			return h.mailer.SendPasswordResetEmail(ctx, event.Recipient, event.Token)
		}
	default:
		return errors.Errorf("unknown mail event kind: %s", event.Kind)
	}

	backoff := retry.WithMaxRetries(smtpRetryAttempts, retry.NewExponential(smtpRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := send(ctx); sendErr != nil {
			return retry.RetryableError(sendErr)
		}

		return nil
	})
	if err != nil {
		return newRetryableError(errors.WithStack(err))
	}

	return nil
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return errors.New("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)

	// The audience must match this endpoint's URL
	scheme := "https"
	if req.TLS == nil {
		scheme = "http" // For local development
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	ctx := req.Context()
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	// The issuer should be accounts.google.com
	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
