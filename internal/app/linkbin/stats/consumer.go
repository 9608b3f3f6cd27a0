package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// visitTx is the slice of pgx.Tx the flush path uses; tests substitute it.
type visitTx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type beginFunc func(ctx context.Context) (visitTx, error)

func poolBeginner(db *pgxpool.Pool) beginFunc {
	return func(ctx context.Context) (visitTx, error) {
		return db.Begin(ctx)
	}
}

// Consumer drains a ChannelCollector and writes visits to Postgres in
// batches: a link_visits row per event plus a visit_count bump.
type Consumer struct {
	begin     beginFunc
	collector *ChannelCollector
	batchSize int
	interval  time.Duration
}

func NewConsumer(db *pgxpool.Pool, collector *ChannelCollector) *Consumer {
	return &Consumer{
		begin:     poolBeginner(db),
		collector: collector,
		batchSize: 100,
		interval:  time.Second,
	}
}

// Run blocks until ctx is cancelled or the collector closes; remaining
// events are flushed on the way out.
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]VisitEvent, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flush(c.begin, batch)
			return
		case event, ok := <-c.collector.Events():
			if !ok {
				flush(c.begin, batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				flush(c.begin, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				flush(c.begin, batch)
				batch = batch[:0]
			}
		}
	}
}

// flush writes the batch in one transaction. A failed statement aborts the
// whole Postgres tx, so on error the batch is retried one event per tx:
// only the bad events are dropped, not their neighbors.
func flush(begin beginFunc, batch []VisitEvent) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := flushTx(ctx, begin, batch)
	if err == nil {
		slog.Debug("visit stats: flushed", "count", len(batch))
		return
	}
	if len(batch) == 1 {
		slog.Error("visit stats: event dropped", "code", batch[0].Code, "err", err)
		return
	}
	slog.Error("visit stats: batch flush failed, retrying per event", "count", len(batch), "err", err)

	for _, e := range batch {
		if err := flushTx(ctx, begin, []VisitEvent{e}); err != nil {
			slog.Error("visit stats: event dropped", "code", e.Code, "err", err)
		}
	}
}

func flushTx(ctx context.Context, begin beginFunc, batch []VisitEvent) error {
	tx, err := begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(context.Background())

	for _, e := range batch {
		if _, err := tx.Exec(ctx,
			"INSERT INTO link_visits (short_code, visited_at, ip, user_agent, referer) VALUES ($1,$2,$3,$4,$5)",
			e.Code, e.VisitedAt, e.IP, e.UserAgent, e.Referer); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			"UPDATE links SET visit_count = visit_count + 1 WHERE short_code = $1",
			e.Code); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
