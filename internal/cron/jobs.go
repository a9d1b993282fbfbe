package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/flashmarket/storefront/pkg/logger"
)

// StatusSyncer advances order statuses upstream.
type StatusSyncer interface {
	SyncStatuses(ctx context.Context) error
}

// NewOrderStatusSyncJob asks the order service to confirm settled orders on
// every cycle.
func NewOrderStatusSyncJob(syncer StatusSyncer) (Job, error) {
	if syncer == nil {
		return nil, fmt.Errorf("status syncer required")
	}
	return &orderStatusSyncJob{syncer: syncer}, nil
}

type orderStatusSyncJob struct {
	syncer StatusSyncer
}

func (j *orderStatusSyncJob) Name() string { return "order-status-sync" }

func (j *orderStatusSyncJob) Run(ctx context.Context) error {
	return j.syncer.SyncStatuses(ctx)
}

type receiptPurger interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReceiptRetentionJobParams configures the receipt cleanup.
type ReceiptRetentionJobParams struct {
	Logger    *logger.Logger
	Receipts  receiptPurger
	Retention time.Duration
}

// NewReceiptRetentionJob removes order receipts older than the retention window.
func NewReceiptRetentionJob(params ReceiptRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if params.Retention <= 0 {
		return nil, fmt.Errorf("retention must be positive")
	}
	return &receiptRetentionJob{
		logg:      params.Logger,
		receipts:  params.Receipts,
		retention: params.Retention,
		now:       time.Now,
	}, nil
}

type receiptRetentionJob struct {
	logg      *logger.Logger
	receipts  receiptPurger
	retention time.Duration
	now       func() time.Time
}

func (j *receiptRetentionJob) Name() string { return "receipt-retention" }

func (j *receiptRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	deleted, err := j.receipts.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge receipts: %w", err)
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithFields(ctx, map[string]any{"deleted": deleted, "cutoff": cutoff}), "cron.receipts_purged")
	}
	return nil
}
