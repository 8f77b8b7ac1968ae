package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"prankweb-sync/internal/fileutil"
	"prankweb-sync/internal/funpdbe"
	"prankweb-sync/internal/logging"
	"prankweb-sync/internal/registry"
)

// Fixed member names of a p2rank result archive.
const (
	predictionsFileName = "structure.pdb_predictions.csv"
	residuesFileName    = "structure.pdb_residues.csv"
)

// PublicationPath returns the sharded ftp location for a converted entry.
func PublicationPath(ftpDir, code string) string {
	lowered := strings.ToLower(registry.CanonicalCode(code))
	return filepath.Join(ftpDir, registry.Shard(code), lowered+".json")
}

// convert runs the FunPDBe conversion for every predicted entry, iterating a
// snapshot of the convertible set. Per-entry failures are contained unless
// strict mode escalates them.
func (r *Runner) convert(ctx context.Context) error {
	log := logging.WithComponent(r.logger, "conversion")

	for _, dir := range []string{r.cfg.FTPDir(), r.cfg.WorkingDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	conversionCfg := funpdbe.Configuration{
		DataResource:    "p2rank",
		ResourceVersion: "3.0",
		ReleaseDate:     r.now().UTC().Format("02/01/2006"),
		URLTemplate:     r.prediction.PredictionURLTemplate(),
		P2RankVersion:   r.cfg.Sync.P2RankVersion,
	}

	for _, code := range r.store.CodesWithStatus(registry.StatusPredicted) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.convertEntry(ctx, log, conversionCfg, code); err != nil {
			return err
		}
	}
	return nil
}

// convertEntry drives one entry through retrieval, extraction, conversion,
// and publication. A non-nil return aborts the whole run: either a strict
// mode escalation or an unexpected local failure.
func (r *Runner) convertEntry(ctx context.Context, log *slog.Logger, conversionCfg funpdbe.Configuration, code string) error {
	entry, ok := r.store.Get(code)
	if !ok {
		return nil
	}

	ws, err := openWorkspace(r.cfg.WorkingDir(), code)
	if err != nil {
		return err
	}

	archivePath := ws.Path(registry.CanonicalCode(code) + ".zip")
	if err := r.prediction.RetrieveArchive(ctx, code, archivePath); err != nil {
		return r.skipEntry(log, code, "can't obtain prediction archive, record ignored", err)
	}
	if err := fileutil.ExtractZipMembers(archivePath, ws.dir, predictionsFileName, residuesFileName); err != nil {
		return r.skipEntry(log, code, "can't extract prediction files, record ignored", err)
	}

	outputPath := ws.Path(strings.ToLower(registry.CanonicalCode(code)) + ".json")
	convertErr := funpdbe.Convert(conversionCfg, code,
		ws.Path(predictionsFileName), ws.Path(residuesFileName), outputPath)

	switch {
	case convertErr == nil:
		entry.Status = registry.StatusConverted
		if err := r.store.Update(entry); err != nil {
			return err
		}
		if err := r.publish(code, outputPath); err != nil {
			return err
		}
		if err := ws.Release(removeWorkspace); err != nil {
			return err
		}
		log.Debug("entry converted",
			logging.String(logging.FieldCode, code),
		)
		return nil

	case errors.Is(convertErr, funpdbe.ErrEmptyPrediction):
		entry.Status = registry.StatusEmpty
		if err := r.store.Update(entry); err != nil {
			return err
		}
		log.Warn("empty prediction, record ignored",
			logging.String(logging.FieldCode, code),
		)
		return ws.Release(retainWorkspace)

	default:
		entry.Status = registry.StatusFunPDBEFailed
		if err := r.store.Update(entry); err != nil {
			return err
		}
		if logErr := ws.WriteErrorLog(convertErr.Error()); logErr != nil {
			log.Warn("can't write error log",
				logging.String(logging.FieldCode, code),
				logging.Error(logErr),
			)
		}
		log.Error("can't convert entry, record ignored",
			logging.String(logging.FieldCode, code),
			logging.Error(convertErr),
		)
		if err := ws.Release(retainWorkspace); err != nil {
			return err
		}
		if r.cfg.Sync.Strict {
			return fmt.Errorf("prepare %q: %w", code, ErrStrictAbort)
		}
		return nil
	}
}

// skipEntry handles an unobtainable result archive: log and move on, unless
// strict mode turns the skip into a run abort. The workspace is retained
// either way.
func (r *Runner) skipEntry(log *slog.Logger, code, message string, err error) error {
	log.Error(message,
		logging.String(logging.FieldCode, code),
		logging.Error(err),
	)
	if r.cfg.Sync.Strict {
		return fmt.Errorf("prepare %q: %w", code, ErrStrictAbort)
	}
	return nil
}

// publish moves the converted output into the sharded ftp tree. The move is
// the atomic last step of the entry's lifecycle.
func (r *Runner) publish(code, outputPath string) error {
	target := PublicationPath(r.cfg.FTPDir(), code)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create publication directory: %w", err)
	}
	if err := fileutil.MoveFile(outputPath, target); err != nil {
		return fmt.Errorf("publish %s: %w", code, err)
	}
	return nil
}
