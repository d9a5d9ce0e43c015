package post

import (
	"context"
	"log"
	"time"
)

// StartRetentionSweep hard-deletes soft-deleted posts once they outlive their
// company's retention window. Runs until ctx is cancelled.
func (s *postService) StartRetentionSweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweepOnce(ctx)
			}
		}
	}()
}

func (s *postService) sweepOnce(ctx context.Context) {
	companies, err := s.companies.ListRetentionCandidates(ctx)
	if err != nil {
		log.Printf("retention: list companies: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, company := range companies {
		cutoff := now.AddDate(0, 0, -company.RetentionDays)
		purged, err := s.repo.PurgeDeletedBefore(ctx, company.ID, cutoff)
		if err != nil {
			log.Printf("retention: purge posts for %s: %v", company.Slug, err)
			continue
		}
		if purged > 0 {
			log.Printf("retention: purged %d posts for %s", purged, company.Slug)
		}
	}
}
