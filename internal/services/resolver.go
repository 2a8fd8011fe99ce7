package services

import (
	"context"

	"property-bidding/internal/domain"
	"property-bidding/pkg/logger"
)

// HighestBidResolver serves the read path for a listing's current leader.
// The ledger is authoritative; an optional expiring cache absorbs repeated
// reads between writes.
type HighestBidResolver struct {
	ledger domain.BidLedger
	cache  domain.LeaderCache
	log    logger.Logger
}

func NewHighestBidResolver(ledger domain.BidLedger, log logger.Logger) *HighestBidResolver {
	return &HighestBidResolver{
		ledger: ledger,
		log:    log,
	}
}

func (r *HighestBidResolver) SetLeaderCache(cache domain.LeaderCache) {
	r.cache = cache
}

// Current returns the leading bid for the listing, or nil when no bid has
// been placed or every bid was rejected.
func (r *HighestBidResolver) Current(ctx context.Context, listingID string) (*domain.Bid, error) {
	if r.cache != nil {
		snapshot, err := r.cache.GetLeader(ctx, listingID)
		if err != nil {
			r.log.Debug("Leader cache read failed, falling back to ledger", "listing_id", listingID, "error", err)
		} else if snapshot != nil {
			return bidFromSnapshot(snapshot), nil
		}
	}

	leader, err := r.ledger.CurrentLeader(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if leader != nil && r.cache != nil {
		snapshot := &domain.LeaderSnapshot{
			ListingID: leader.ListingID,
			BidID:     leader.ID,
			UserID:    leader.UserID,
			Amount:    leader.Amount,
			PlacedAt:  leader.PlacedAt,
		}
		if err := r.cache.SetLeader(ctx, snapshot); err != nil {
			r.log.Debug("Leader cache refresh failed", "listing_id", listingID, "error", err)
		}
	}

	return leader, nil
}

func bidFromSnapshot(snapshot *domain.LeaderSnapshot) *domain.Bid {
	return &domain.Bid{
		ID:        snapshot.BidID,
		ListingID: snapshot.ListingID,
		UserID:    snapshot.UserID,
		Amount:    snapshot.Amount,
		Status:    domain.BidLeading,
		PlacedAt:  snapshot.PlacedAt,
	}
}
