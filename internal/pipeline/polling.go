package pipeline

import (
	"context"
	"errors"
	"fmt"

	"prankweb-sync/internal/logging"
	"prankweb-sync/internal/registry"
	"prankweb-sync/internal/services"
	"prankweb-sync/internal/services/prankweb"
)

// poll issues one status request per pollable entry, iterating a snapshot of
// the pollable set taken up front. Transport failures leave the entry
// unchanged for the next run; remote rejections and failed jobs mark it
// prankweb_failed.
func (r *Runner) poll(ctx context.Context) error {
	log := logging.WithComponent(r.logger, "polling")

	for _, code := range r.store.CodesWithStatus(registry.StatusNew, registry.StatusPrankwebQueued) {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, ok := r.store.Get(code)
		if !ok {
			continue
		}
		log.Info("checking entry",
			logging.String(logging.FieldCode, code),
			logging.String(logging.FieldStatus, string(entry.Status)),
		)

		prediction, err := r.prediction.PredictionStatus(ctx, code)
		switch {
		case errors.Is(err, services.ErrTransient):
			log.Warn("can't connect to server, entry left for the next run",
				logging.String(logging.FieldCode, code),
				logging.Error(err),
			)
			continue
		case err != nil:
			entry.Status = registry.StatusPrankwebFailed
			if updateErr := r.store.Update(entry); updateErr != nil {
				return updateErr
			}
			log.Warn("request failed",
				logging.String(logging.FieldCode, code),
				logging.Error(err),
			)
			continue
		}

		// Keep the remote timestamps in the same UTC form as the rest of
		// the registry.
		entry.PrankwebCreatedDate = prediction.Created + "Z"
		entry.PrankwebCheckDate = prediction.LastChange + "Z"
		switch prediction.Status {
		case prankweb.JobSuccessful:
			entry.Status = registry.StatusPredicted
		case prankweb.JobFailed:
			entry.Status = registry.StatusPrankwebFailed
		default:
			// Still queued or running remotely.
			entry.Status = registry.StatusPrankwebQueued
		}
		if err := r.store.Update(entry); err != nil {
			return fmt.Errorf("update entry %s: %w", code, err)
		}
		log.Info("status updated",
			logging.String(logging.FieldCode, code),
			logging.String(logging.FieldStatus, string(entry.Status)),
			logging.String("remote_status", prediction.Status),
		)
	}
	return nil
}
