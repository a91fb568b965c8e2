package noteservice

import (
	"log/slog"
)

// SyncVault walks the vault and brings the index and graph up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
//
// A changed fingerprint also implicitly marks the document's cached
// embedding stale; the embedding syncer picks that up on its own pass.
func (s *Service) SyncVault(logger *slog.Logger) error {
	metas, err := s.store.List()
	if err != nil {
		return err
	}

	fingerprints, err := s.db.AllFingerprints()
	if err != nil {
		return err
	}

	onDisk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		onDisk[m.ID] = struct{}{}

		if fingerprints[m.ID] == m.Fingerprint {
			continue
		}

		data, err := s.store.Read(m.ID)
		if err != nil {
			logger.Warn("vault sync: read failed", slog.String("id", m.ID), slog.String("error", err.Error()))
			continue
		}
		if err := s.IndexDocument(m.ID, data); err != nil {
			logger.Warn("vault sync: index failed", slog.String("id", m.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("vault sync: indexed", slog.String("id", m.ID))
		}
	}

	// Remove index entries whose files are gone.
	for id := range fingerprints {
		if _, ok := onDisk[id]; !ok {
			if err := s.RemoveFromIndex(id); err != nil {
				logger.Warn("vault sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("vault sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
