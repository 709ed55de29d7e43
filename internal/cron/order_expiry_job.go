package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/roperito/roperito-backend/pkg/logger"
)

const OrderExpiryJobName = "order-expiry"

type pendingExpirer interface {
	ExpirePending(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// OrderExpiryJobParams configure the pending order sweeper.
type OrderExpiryJobParams struct {
	Logger    *logger.Logger
	Orders    pendingExpirer
	TTL       time.Duration
	BatchSize int
	// MaxBatches bounds how many batches one cycle drains. Zero means one.
	MaxBatches int
}

type orderExpiryJob struct {
	logg       *logger.Logger
	orders     pendingExpirer
	ttl        time.Duration
	batch      int
	maxBatches int
	now        func() time.Time
}

// NewOrderExpiryJob cancels orders left pending longer than TTL and frees
// their listings.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order service required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending order ttl must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 100
	}
	maxBatches := params.MaxBatches
	if maxBatches <= 0 {
		maxBatches = 1
	}
	return &orderExpiryJob{
		logg:       params.Logger,
		orders:     params.Orders,
		ttl:        params.TTL,
		batch:      batch,
		maxBatches: maxBatches,
		now:        time.Now,
	}, nil
}

func (j *orderExpiryJob) Name() string { return OrderExpiryJobName }

func (j *orderExpiryJob) Run(ctx context.Context) (int, error) {
	cutoff := j.now().UTC().Add(-j.ttl)
	total := 0
	for i := 0; i < j.maxBatches; i++ {
		n, err := j.orders.ExpirePending(ctx, cutoff, j.batch)
		total += n
		if err != nil {
			return total, fmt.Errorf("expire pending orders: %w", err)
		}
		if n < j.batch {
			break
		}
	}
	if total > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", total), "expired stale pending orders")
	}
	return total, nil
}
