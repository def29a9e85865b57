package ingest

import (
	"context"
	"errors"
	"fmt"

	"jobsearch-engine/internal/domain"
)

// FingerprintLookup reports which of the given fingerprints are already stored.
type FingerprintLookup interface {
	ExistingFingerprints(ctx context.Context, fps []string) (map[string]bool, error)
}

// DedupResult splits a batch of drafts. Fresh drafts are not in the store yet;
// Known drafts are, and only get their score refreshed on upsert.
type DedupResult struct {
	Fresh      []domain.Job
	Known      []domain.Job
	Duplicates int
}

// Dedup collapses intra-batch duplicates to their first occurrence and splits
// the rest by whether the store already holds their fingerprint.
func Dedup(ctx context.Context, lookup FingerprintLookup, drafts []domain.Job) (DedupResult, error) {
	var res DedupResult

	seen := make(map[string]bool, len(drafts))
	unique := make([]domain.Job, 0, len(drafts))
	fps := make([]string, 0, len(drafts))
	for _, d := range drafts {
		if d.Fingerprint == "" {
			d.Fingerprint = domain.Fingerprint(d.Title, d.Company)
		}
		if seen[d.Fingerprint] {
			res.Duplicates++
			continue
		}
		seen[d.Fingerprint] = true
		unique = append(unique, d)
		fps = append(fps, d.Fingerprint)
	}
	if len(unique) == 0 {
		return res, nil
	}

	stored, err := lookup.ExistingFingerprints(ctx, fps)
	if err != nil {
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		return DedupResult{}, err
	}

	for _, d := range unique {
		if stored[d.Fingerprint] {
			res.Known = append(res.Known, d)
		} else {
			res.Fresh = append(res.Fresh, d)
		}
	}
	return res, nil
}
