package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"property-bidding/internal/domain"
	"property-bidding/pkg/logger"
	"property-bidding/pkg/utils"
)

const (
	msgRejected = "bid rejected: amount is below the listing floor"
	msgAccepted = "bid accepted but not leading"
	msgLeading  = "you are now the leading bidder"
	msgOutbid   = "you have been outbid"
)

// BidPlacementService runs the read-decide-write cycle for one bid under a
// per-listing lock, so concurrent submissions against the same listing are
// fully serialized while different listings never contend.
type BidPlacementService struct {
	ledger   domain.BidLedger
	catalog  domain.PropertyCatalog
	users    domain.UserDirectory
	locker   domain.ListingLocker
	cache    domain.LeaderCache
	eventPub domain.EventPublisher
	relay    *OutboxRelay
	log      logger.Logger
}

func NewBidPlacementService(
	ledger domain.BidLedger,
	catalog domain.PropertyCatalog,
	users domain.UserDirectory,
	locker domain.ListingLocker,
	log logger.Logger,
) *BidPlacementService {
	return &BidPlacementService{
		ledger:  ledger,
		catalog: catalog,
		users:   users,
		locker:  locker,
		log:     log,
	}
}

// SetLeaderCache wires the optional read-path cache refreshed after commits.
func (s *BidPlacementService) SetLeaderCache(cache domain.LeaderCache) {
	s.cache = cache
}

// SetEventPublisher wires the optional post-commit event stream.
func (s *BidPlacementService) SetEventPublisher(eventPub domain.EventPublisher) {
	s.eventPub = eventPub
}

// SetOutboxRelay wires the relay kicked after each commit so notifications
// leave the outbox without waiting for the next sweep.
func (s *BidPlacementService) SetOutboxRelay(relay *OutboxRelay) {
	s.relay = relay
}

// PlaceBid validates the submission, resolves the current leader and commits
// exactly one of three outcomes: rejected (below floor), accepted (at or
// above floor but not strictly above the leader) or leading (new leader,
// demoting the prior one). Equal amounts keep the earlier bid leading.
func (s *BidPlacementService) PlaceBid(ctx context.Context, listingID, userID string, amount float64) (*domain.Bid, domain.BidOutcome, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, "", fmt.Errorf("%w: got %v", domain.ErrInvalidAmount, amount)
	}

	listing, err := s.catalog.GetListing(ctx, listingID)
	if err != nil {
		return nil, "", err
	}

	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if !exists {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	token, err := s.locker.Acquire(ctx, listingID)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err := s.locker.Release(ctx, listingID, token); err != nil {
			s.log.Warn("Failed to release listing lock", "listing_id", listingID, "error", err)
		}
	}()

	leader, err := s.ledger.CurrentLeader(ctx, listingID)
	if err != nil {
		return nil, "", err
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		ListingID: listingID,
		UserID:    userID,
		Amount:    amount,
		PlacedAt:  time.Now().UTC(),
	}
	placement := &domain.BidPlacement{Bid: bid}

	var outcome domain.BidOutcome
	switch {
	case amount < listing.BasePrice:
		bid.Status = domain.BidRejected
		outcome = domain.OutcomeRejected
		placement.Outbox = append(placement.Outbox, newOutboxEntry(userID, listingID, bid.ID, msgRejected))

	case leader == nil || amount > leader.Amount:
		// Strict > keeps the earlier bid leading on equal amounts.
		bid.Status = domain.BidLeading
		outcome = domain.OutcomeLeading
		if leader != nil {
			placement.DemoteBidID = leader.ID
			placement.Outbox = append(placement.Outbox, newOutboxEntry(leader.UserID, listingID, bid.ID, msgOutbid))
		}
		placement.Outbox = append(placement.Outbox, newOutboxEntry(userID, listingID, bid.ID, msgLeading))

	default:
		bid.Status = domain.BidAccepted
		outcome = domain.OutcomeAccepted
		placement.Outbox = append(placement.Outbox, newOutboxEntry(userID, listingID, bid.ID, msgAccepted))
	}

	if err := s.ledger.ApplyPlacement(ctx, placement); err != nil {
		return nil, "", err
	}

	s.log.Info("Bid placed",
		"bid_id", bid.ID,
		"listing_id", listingID,
		"user_id", userID,
		"amount", amount,
		"outcome", string(outcome))

	// Everything below is best-effort: the bid is committed and its outcome
	// never depends on cache, event or notification delivery.
	s.afterCommit(ctx, bid, leader, outcome)

	return bid, outcome, nil
}

func (s *BidPlacementService) afterCommit(ctx context.Context, bid *domain.Bid, demoted *domain.Bid, outcome domain.BidOutcome) {
	if outcome == domain.OutcomeLeading && s.cache != nil {
		// Drop the old snapshot before writing the new one. If the write
		// then fails, readers fall back to the ledger instead of serving
		// the demoted leader until the TTL runs out.
		if err := s.cache.InvalidateLeader(ctx, bid.ListingID); err != nil {
			s.log.Warn("Failed to invalidate leader cache", "listing_id", bid.ListingID, "error", err)
		}
		snapshot := &domain.LeaderSnapshot{
			ListingID: bid.ListingID,
			BidID:     bid.ID,
			UserID:    bid.UserID,
			Amount:    bid.Amount,
			PlacedAt:  bid.PlacedAt,
		}
		if err := s.cache.SetLeader(ctx, snapshot); err != nil {
			s.log.Warn("Failed to refresh leader cache", "listing_id", bid.ListingID, "error", err)
			if err := s.cache.InvalidateLeader(ctx, bid.ListingID); err != nil {
				s.log.Warn("Failed to invalidate leader cache", "listing_id", bid.ListingID, "error", err)
			}
		}
	}

	if s.eventPub != nil {
		s.publishEvent(ctx, &domain.BidEvent{
			Type:      outcomeEventType(outcome),
			ListingID: bid.ListingID,
			UserID:    bid.UserID,
			BidID:     bid.ID,
			Amount:    bid.Amount,
			Timestamp: bid.PlacedAt,
		})
		if outcome == domain.OutcomeLeading && demoted != nil {
			s.publishEvent(ctx, &domain.BidEvent{
				Type:      domain.EventBidderOutbid,
				ListingID: bid.ListingID,
				UserID:    demoted.UserID,
				BidID:     demoted.ID,
				Amount:    demoted.Amount,
				Timestamp: bid.PlacedAt,
			})
		}
	}

	if s.relay != nil {
		go s.relay.Drain(context.Background())
	}
}

func (s *BidPlacementService) publishEvent(ctx context.Context, event *domain.BidEvent) {
	if err := s.eventPub.PublishBidEvent(ctx, event); err != nil {
		s.log.Warn("Failed to publish bid event", "type", string(event.Type), "bid_id", event.BidID, "error", err)
	}
}

func outcomeEventType(outcome domain.BidOutcome) domain.BidEventType {
	switch outcome {
	case domain.OutcomeRejected:
		return domain.EventBidRejected
	case domain.OutcomeLeading:
		return domain.EventBidLeading
	default:
		return domain.EventBidAccepted
	}
}

func newOutboxEntry(userID, listingID, bidID, message string) *domain.OutboxEntry {
	return &domain.OutboxEntry{
		ID:        utils.GenerateID("ntf"),
		UserID:    userID,
		ListingID: listingID,
		BidID:     bidID,
		Message:   message,
		Status:    domain.OutboxPending,
		CreatedAt: time.Now().UTC(),
	}
}
