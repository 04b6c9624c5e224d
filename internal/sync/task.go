// Package sync implements the core synchronization task: poll pending
// source orders per tenant, map them into destination leads, and
// forward them in one bulk call, checkpointing the last-synced time.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"satu-amo-bridge/internal/amocrm"
	apperrors "satu-amo-bridge/internal/common/errors"
	"satu-amo-bridge/internal/common/logger"
	"satu-amo-bridge/internal/common/metrics"
	"satu-amo-bridge/internal/credentials"
	"satu-amo-bridge/internal/satu"
)

// CredentialSource yields the tenants to synchronize.
type CredentialSource interface {
	ListWithSecrets(ctx context.Context) ([]credentials.Credential, error)
}

// OrderFetcher polls the source system for pending orders.
type OrderFetcher interface {
	ListPendingOrders(ctx context.Context, apiURL, token, since string) ([]satu.Order, error)
}

// LeadSubmitter forwards one batch of leads to the destination CRM.
type LeadSubmitter interface {
	CreateComplexLeads(ctx context.Context, acct amocrm.Account, leads []amocrm.LeadPayload) (json.RawMessage, error)
}

type TaskDependencies struct {
	Store      CredentialSource
	Source     OrderFetcher
	Dest       LeadSubmitter
	Checkpoint *Tracker
	Events     *EventLog
	Logger     logger.Logger
	Clock      func() time.Time
}

type Task struct {
	store      CredentialSource
	source     OrderFetcher
	dest       LeadSubmitter
	checkpoint *Tracker
	events     *EventLog
	logger     logger.Logger
	clock      func() time.Time
}

func NewTask(deps TaskDependencies) *Task {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Task{
		store:      deps.Store,
		source:     deps.Source,
		dest:       deps.Dest,
		checkpoint: deps.Checkpoint,
		events:     deps.Events,
		logger:     deps.Logger,
		clock:      clock,
	}
}

var projectNameRE = regexp.MustCompile(`https://([^.]+)\.`)

// projectName extracts a short tenant label from the destination URL
// for log lines.
func projectName(destURL string) string {
	if m := projectNameRE.FindStringSubmatch(destURL); m != nil {
		return m[1]
	}
	return destURL
}

// Run executes one sync cycle. The checkpoint is advanced to now
// before any tenant is polled, so a cycle failing mid-fetch
// permanently skips that window; the next scheduled invocation is the
// only retry mechanism. Tenants are processed strictly sequentially,
// a fetch failure aborts the whole cycle, and an empty batch ends the
// cycle without touching the remaining tenants.
func (t *Task) Run(ctx context.Context) error {
	log := t.logger.WithFields(map[string]interface{}{
		"cycleId": uuid.NewString(),
	})

	since, err := t.checkpoint.Read(ctx)
	if err != nil {
		return err
	}

	now := t.clock()
	if err := t.checkpoint.Advance(ctx, now); err != nil {
		return err
	}
	log.Info("checkpoint advanced", map[string]interface{}{
		"since": since.Format(TimeLayout),
		"now":   now.Format(TimeLayout),
	})

	tenants, err := t.store.ListWithSecrets(ctx)
	if err != nil {
		return err
	}

	for _, cred := range tenants {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cycle cancelled: %w", err)
		}
		done, err := t.syncTenant(ctx, log, cred, since)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return nil
}

// syncTenant processes one tenant. done=true means the cycle should
// stop before the remaining tenants (empty batch).
func (t *Task) syncTenant(ctx context.Context, log logger.Logger, cred credentials.Credential, since time.Time) (bool, error) {
	project := projectName(cred.DestAPIURL)
	log = log.WithFields(map[string]interface{}{
		"credentialsId": cred.ID,
		"project":       project,
	})

	orders, err := t.source.ListPendingOrders(ctx, cred.SourceAPIURL, cred.SourceAPIToken, since.Format(TimeLayout))
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("satu").Inc()
		log.WithError(err).Error("failed to fetch pending orders, aborting cycle", nil)
		return false, err
	}

	leads := make([]amocrm.LeadPayload, 0, len(orders))
	for _, order := range orders {
		lead, err := MapOrder(order, cred.FieldIDs, cred.PipelineID)
		if err != nil {
			if apperrors.IsMalformedOrder(err) {
				metrics.SyncOrdersSkipped.Inc()
				log.WithError(err).Warn("skipping malformed order", map[string]interface{}{
					"email": order.Email,
				})
				continue
			}
			return false, err
		}
		leads = append(leads, lead)
	}

	if len(leads) > 0 {
		log.Info("orders fetched from source", map[string]interface{}{
			"orders": len(orders),
			"leads":  len(leads),
		})
		resp, err := t.dest.CreateComplexLeads(ctx, amocrm.Account{
			BaseURL: cred.DestAPIURL,
			Token:   cred.DestAPIToken,
		}, leads)
		if err != nil {
			metrics.UpstreamErrors.WithLabelValues("amocrm").Inc()
			log.WithError(err).Error("failed to submit leads, aborting cycle", nil)
			return false, err
		}
		log.Info("leads submitted to destination", map[string]interface{}{
			"response": string(resp),
		})
	} else {
		log.Warn("nothing found on source", nil)
	}

	line := fmt.Sprintf("%s -- Loaded %d", t.clock().Format(TimeLayout), len(leads))
	if err := t.events.Append(line); err != nil {
		log.WithError(err).Error("failed to append event log line", nil)
	}
	metrics.SyncOrdersLoaded.WithLabelValues(project).Add(float64(len(leads)))

	// An empty batch ends the whole cycle, not just this tenant.
	return len(leads) == 0, nil
}
