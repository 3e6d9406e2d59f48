package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rareminds/skillpassport-billing/internal/config"
	"github.com/rareminds/skillpassport-billing/internal/notification/domain"
	"go.uber.org/zap"
)

// Config points at the platform's notification service.
type Config struct {
	Endpoint string
	Token    string
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		Endpoint: cfg.NotificationEndpoint,
		Token:    cfg.NotificationToken,
	}
}

type notifier struct {
	cfg    Config
	log    *zap.Logger
	client *http.Client
}

// New returns an HTTP notifier, or a noop one when no endpoint is
// configured so local runs need no notification service.
func New(cfg Config, log *zap.Logger) domain.Notifier {
	if cfg.Endpoint == "" {
		return noop{log: log.Named("notifier")}
	}
	return &notifier{
		cfg: cfg,
		log: log.Named("notifier"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *notifier) Send(ctx context.Context, msg domain.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.Token)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}
	return nil
}

type noop struct {
	log *zap.Logger
}

func (n noop) Send(_ context.Context, msg domain.Message) error {
	n.log.Debug("notification skipped, no endpoint configured",
		zap.String("user_id", msg.UserID),
		zap.String("template", msg.Template),
	)
	return nil
}
