package linkbin

import (
	"context"
	"log/slog"
	"time"

	"linkbin.local/internal/app/linkbin/storage"
)

// Sweeper removes blobs whose link row never landed (a crash between upload
// and insert) or whose compensating delete failed. An object is an orphan
// when no row carries its public URL and it is older than the grace period;
// the grace keeps in-flight uploads safe.
type Sweeper struct {
	links LinkRegistry
	blobs storage.BlobStore
	Grace time.Duration
}

func NewSweeper(links LinkRegistry, blobs storage.BlobStore) *Sweeper {
	return &Sweeper{
		links: links,
		blobs: blobs,
		Grace: time.Hour,
	}
}

type SweepResult struct {
	Scanned int
	Deleted int
	Failed  int
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	objects, err := s.blobs.List(ctx, "")
	if err != nil {
		return res, err
	}
	cutoff := time.Now().Add(-s.Grace)

	for _, obj := range objects {
		res.Scanned++
		if obj.LastModified.After(cutoff) {
			continue
		}
		exists, err := s.links.ExistsContent(ctx, s.blobs.PublicURL(obj.Key))
		if err != nil {
			slog.Error("sweep: row lookup failed", "key", obj.Key, "err", err)
			res.Failed++
			continue
		}
		if exists {
			continue
		}
		if err := s.blobs.Remove(ctx, obj.Key); err != nil {
			slog.Error("sweep: remove failed", "key", obj.Key, "err", err)
			res.Failed++
			continue
		}
		slog.Info("sweep: orphan blob removed", "key", obj.Key, "size", obj.Size)
		res.Deleted++
	}
	return res, nil
}
