package linking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/bizgrow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncJob describes one historical backfill request handed to the sync
// pipeline.
type SyncJob struct {
	TenantID      uuid.UUID            `json:"tenant_id"`
	IntegrationID uuid.UUID            `json:"integration_id"`
	Platform      linking.PlatformCode `json:"platform"`
	// Since is the inclusive start of the backfill window
	Since time.Time `json:"since"`
}

// SyncDispatcher hands sync jobs to the pipeline that performs the actual
// data pull. Implementations may enqueue to a worker pool or an external
// job system.
type SyncDispatcher interface {
	// DispatchHistoricalSync submits a backfill job for execution
	DispatchHistoricalSync(ctx context.Context, job SyncJob) error
}

// SyncRequestedHandler consumes sync requests drained from the outbox and
// forwards them to the sync pipeline. It is wrapped in an idempotent
// handler, so redelivered outbox entries dispatch at most once.
type SyncRequestedHandler struct {
	logger          *zap.Logger
	integrationRepo linking.IntegrationRepository
	dispatcher      SyncDispatcher
}

// NewSyncRequestedHandler creates a new handler for sync requests
func NewSyncRequestedHandler(
	logger *zap.Logger,
	integrationRepo linking.IntegrationRepository,
	dispatcher SyncDispatcher,
) *SyncRequestedHandler {
	return &SyncRequestedHandler{
		logger:          logger,
		integrationRepo: integrationRepo,
		dispatcher:      dispatcher,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SyncRequestedHandler) EventTypes() []string {
	return []string{linking.EventTypeSyncRequested}
}

// Handle processes a SyncRequested event
func (h *SyncRequestedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	syncEvent, ok := event.(*linking.SyncRequested)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", linking.EventTypeSyncRequested),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			linking.EventTypeSyncRequested, event.EventType())
	}

	// The integration may have been disconnected between the outbox write
	// and this dispatch. A missing or severed integration just drops the
	// request; there is nothing left to sync into.
	integ, err := h.integrationRepo.FindByID(ctx, syncEvent.IntegrationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.logger.Info("sync request dropped, integration gone",
				zap.String("integration_id", syncEvent.IntegrationID.String()),
			)
			return nil
		}
		return err
	}
	if !integ.IsConnected() {
		h.logger.Info("sync request dropped, integration not connected",
			zap.String("integration_id", syncEvent.IntegrationID.String()),
			zap.String("status", string(integ.Status)),
		)
		return nil
	}

	lookback := syncEvent.LookbackMonths
	if lookback <= 0 {
		lookback = 6
	}

	job := SyncJob{
		TenantID:      event.TenantID(),
		IntegrationID: syncEvent.IntegrationID,
		Platform:      syncEvent.Platform,
		Since:         time.Now().AddDate(0, -lookback, 0),
	}
	if err := h.dispatcher.DispatchHistoricalSync(ctx, job); err != nil {
		h.logger.Error("failed to dispatch historical sync",
			zap.String("integration_id", job.IntegrationID.String()),
			zap.String("platform", string(job.Platform)),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("historical sync dispatched",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("integration_id", job.IntegrationID.String()),
		zap.String("platform", string(job.Platform)),
		zap.Time("since", job.Since),
	)
	return nil
}

// Ensure SyncRequestedHandler implements shared.EventHandler
var _ shared.EventHandler = (*SyncRequestedHandler)(nil)

// LoggingSyncDispatcher logs sync jobs instead of executing them. Used in
// development and as the default until the pull pipeline is wired in.
type LoggingSyncDispatcher struct {
	logger *zap.Logger
}

// NewLoggingSyncDispatcher creates a new logging dispatcher
func NewLoggingSyncDispatcher(logger *zap.Logger) *LoggingSyncDispatcher {
	return &LoggingSyncDispatcher{logger: logger}
}

// DispatchHistoricalSync logs the job
func (d *LoggingSyncDispatcher) DispatchHistoricalSync(ctx context.Context, job SyncJob) error {
	d.logger.Info("HISTORICAL SYNC REQUESTED",
		zap.String("integration_id", job.IntegrationID.String()),
		zap.String("platform", string(job.Platform)),
		zap.Time("since", job.Since),
	)
	return nil
}

// Ensure LoggingSyncDispatcher implements SyncDispatcher
var _ SyncDispatcher = (*LoggingSyncDispatcher)(nil)
