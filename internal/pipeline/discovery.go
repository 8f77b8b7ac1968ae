package pipeline

import (
	"context"
	"fmt"
	"time"

	"prankweb-sync/internal/logging"
	"prankweb-sync/internal/registry"
)

// discover asks the discovery service for records released on or after the
// watermark and inserts unseen codes as new entries. Existing entries are
// never touched. A discovery error aborts the run before the watermark is
// persisted.
func (r *Runner) discover(ctx context.Context, from string) error {
	log := logging.WithComponent(r.logger, "discovery")

	records, err := r.discovery.ReleasedSince(ctx, from)
	if err != nil {
		return fmt.Errorf("discover released entries: %w", err)
	}

	createDate := r.now().UTC().Format(time.RFC3339)
	added := 0
	for _, record := range records {
		if _, exists := r.store.Get(record.Code); exists {
			continue
		}
		entry := registry.Entry{
			Code:           record.Code,
			Status:         registry.StatusNew,
			CreateDate:     createDate,
			PDBReleaseDate: record.Released,
		}
		if err := r.store.Insert(entry); err != nil {
			return fmt.Errorf("insert entry %s: %w", record.Code, err)
		}
		added++
	}

	log.Info("discovery complete",
		logging.Int("records", len(records)),
		logging.Int("added", added),
	)
	return nil
}
