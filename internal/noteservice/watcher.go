package noteservice

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rundberg/ansuz/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, id string)

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each successful index mutation.
//
// The vault is a flat directory, so only the root is watched. Rename
// events fire on the old name only; the new name arrives as a separate
// Create event, so a short reconciliation pass cleans up entries whose
// files no longer exist.
func (s *Service) Watch(ctx context.Context, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// reconcileTimer debounces rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			s.reconcileDeleted(logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			id := storage.IDFromFilename(filepath.Base(ev.Name))
			if id == "" {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := s.store.Read(id)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("id", id), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := s.IndexDocument(id, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("id", id), slog.String("error", idxErr.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("id", id), slog.String("op", kind))
				if cb != nil {
					cb(kind, id)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := s.RemoveFromIndex(id); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("id", id), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("id", id))
				if cb != nil {
					cb("deleted", id)
				}

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the OLD name only. Drop the old entry
				// now and schedule a reconciliation pass for stragglers.
				if delErr := s.RemoveFromIndex(id); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("id", id), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("id", id))
					if cb != nil {
						cb("deleted", id)
					}
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcileDeleted removes index entries whose vault files have vanished.
func (s *Service) reconcileDeleted(logger *slog.Logger, cb EventCallback) {
	metas, err := s.store.List()
	if err != nil {
		logger.Warn("watcher: reconcile list failed", slog.String("error", err.Error()))
		return
	}
	onDisk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		onDisk[m.ID] = struct{}{}
	}

	fingerprints, err := s.db.AllFingerprints()
	if err != nil {
		logger.Warn("watcher: reconcile fingerprints failed", slog.String("error", err.Error()))
		return
	}
	for id := range fingerprints {
		if _, ok := onDisk[id]; ok {
			continue
		}
		if err := s.RemoveFromIndex(id); err != nil {
			logger.Warn("watcher: reconcile delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		logger.Debug("watcher: reconciled deletion", slog.String("id", id))
		if cb != nil {
			cb("deleted", id)
		}
	}
}
