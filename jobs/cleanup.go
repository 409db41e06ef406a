// Package jobs runs the background maintenance work of the storefront.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleOrderDeleter purges unpaid online orders older than a cutoff.
type StaleOrderDeleter interface {
	DeleteStaleOnlineOrders(ctx context.Context, cutoff time.Time) (int64, error)
}

// OrderJanitor deletes online orders that were never paid: abandoned checkout
// sessions and orders whose provider session could not be created. COD and
// paid orders are never touched.
type OrderJanitor struct {
	Orders StaleOrderDeleter
	MaxAge time.Duration
	Log    *zap.Logger
}

// NewOrderJanitor creates a janitor purging unpaid online orders older than
// maxAge.
func NewOrderJanitor(orders StaleOrderDeleter, maxAge time.Duration, log *zap.Logger) *OrderJanitor {
	return &OrderJanitor{Orders: orders, MaxAge: maxAge, Log: log}
}

// Run performs a single purge pass.
func (j *OrderJanitor) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.MaxAge)
	deleted, err := j.Orders.DeleteStaleOnlineOrders(ctx, cutoff)
	if err != nil {
		j.Log.Error("purge stale orders", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.Log.Info("purged stale unpaid orders", zap.Int64("count", deleted))
	}
}

// Start schedules the janitor hourly and returns the running scheduler so the
// caller can stop it on shutdown.
func Start(j *OrderJanitor) *cron.Cron {
	c := cron.New()
	c.AddFunc("@hourly", j.Run)
	c.Start()
	return c
}
