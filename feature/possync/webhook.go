package possync

import (
	"context"
	"errors"

	"catalog-sync/core/worker"
	"catalog-sync/feature/pos"

	"go.uber.org/zap"
)

// Webhook outcomes reported back to the caller. Every outcome except a
// signature failure is acknowledged to the provider.
const (
	WebhookDispatched    = "dispatched"
	WebhookIgnored       = "ignored"
	WebhookUnparseable   = "unparseable"
	WebhookUnknownTenant = "unknown_tenant"
	WebhookQueueFull     = "queue_full"
)

// WebhookResult describes how a notification was handled.
type WebhookResult struct {
	Outcome  string `json:"outcome"`
	TenantID string `json:"tenantId,omitempty"`
	EventID  string `json:"eventId,omitempty"`
}

// HandleWebhook verifies a provider notification and, for catalog changes,
// queues a WEBHOOK sync for the owning tenant. It returns
// pos.ErrSignatureInvalid when the signature does not match.
//
// The payload is parsed before verification only to find the tenant whose
// signing secret applies; nothing is acted on until the signature checks out.
func (s *Service) HandleWebhook(ctx context.Context, provider pos.Provider, rawBody []byte, signature string) (*WebhookResult, error) {
	verifier, err := s.registry.Verifier(provider)
	if err != nil {
		return nil, err
	}
	l := s.logger.With(zap.String("provider", string(provider)))

	event, parseErr := verifier.Parse(rawBody)

	secret := s.webhookSecrets[provider]
	tenantID := ""
	if parseErr == nil {
		if integ, err := s.store.TenantByAccount(ctx, provider, event.AccountID); err == nil {
			tenantID = integ.TenantID
			if creds, err := s.creds.Get(ctx, tenantID, provider); err == nil && creds.WebhookSecret != "" {
				secret = creds.WebhookSecret
			}
		} else if !errors.Is(err, pos.ErrNotConnected) {
			l.Warn("Tenant lookup failed", zap.Error(err))
		}
	}

	// Without a secret nothing can be verified. Notifications that would not
	// trigger a sync are still acknowledged; the rest are rejected below.
	if secret == "" && (parseErr != nil || tenantID == "") {
		l.Warn("Acknowledged unverifiable webhook, no signing secret configured", zap.String("account_id", event.AccountID))
		if parseErr != nil {
			return &WebhookResult{Outcome: WebhookUnparseable}, nil
		}
		return &WebhookResult{Outcome: WebhookUnknownTenant, EventID: event.EventID}, nil
	}

	if !verifier.Verify(rawBody, signature, secret) {
		l.Warn("Rejected webhook with invalid signature", zap.String("account_id", event.AccountID))
		return nil, pos.ErrSignatureInvalid
	}

	if parseErr != nil {
		l.Warn("Acknowledged unparseable webhook", zap.Error(parseErr))
		return &WebhookResult{Outcome: WebhookUnparseable}, nil
	}

	res := &WebhookResult{TenantID: tenantID, EventID: event.EventID}
	l = l.With(zap.String("event_type", event.EventType), zap.String("event_id", event.EventID))

	if tenantID == "" {
		l.Info("Webhook for unknown account", zap.String("account_id", event.AccountID))
		res.Outcome = WebhookUnknownTenant
		return res, nil
	}
	if !event.CatalogChanged {
		l.Debug("Ignoring non-catalog webhook", zap.String("tenant_id", tenantID))
		res.Outcome = WebhookIgnored
		return res, nil
	}

	if err := s.submitSync(tenantID, pos.TriggerWebhook); err != nil {
		l.Warn("Webhook sync not queued", zap.String("tenant_id", tenantID), zap.Error(err))
		res.Outcome = WebhookQueueFull
		return res, nil
	}

	l.Info("Webhook sync queued", zap.String("tenant_id", tenantID))
	res.Outcome = WebhookDispatched
	return res, nil
}

// submitSync queues a background sync. Coalesced syncs are not failures.
func (s *Service) submitSync(tenantID string, trigger pos.Trigger) error {
	return s.dispatcher.Submit(worker.Job{
		Name: string(trigger) + ":" + tenantID,
		Run: func(ctx context.Context) error {
			_, err := s.orchestrator.Sync(ctx, tenantID, trigger)
			if errors.Is(err, pos.ErrSyncInProgress) {
				return nil
			}
			return err
		},
	})
}
