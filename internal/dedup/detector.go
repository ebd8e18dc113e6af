package dedup

import (
	"context"
	"log/slog"
)

// Index is the set of fingerprints of documents already accepted this
// session. Append-only from the detector's point of view; entries are added
// elsewhere, only on acceptance.
type Index interface {
	IsAccepted(ctx context.Context, fingerprint string) (bool, error)
}

// Detector classifies fingerprints against the accepted set. In-flight
// documents are deliberately not consulted: two identical documents racing
// through together both pass, and the second surfaces as a conflict only
// once the first is accepted.
type Detector struct {
	index  Index
	logger *slog.Logger
}

func NewDetector(index Index, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{index: index, logger: logger}
}

// Check reports whether the fingerprint matches an accepted document.
func (d *Detector) Check(ctx context.Context, fingerprint string) (bool, error) {
	dup, err := d.index.IsAccepted(ctx, fingerprint)
	if err != nil {
		return false, err
	}
	if dup {
		d.logger.Info("dedup.hit", "fingerprint", fingerprint)
	}
	return dup, nil
}
