package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

type Bid struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	Status    BidStatus `json:"status"`
	PlacedAt  time.Time `json:"placed_at"`
}

type BidStatus int

const (
	BidRejected BidStatus = iota
	BidAccepted
	BidLeading
)

func (s BidStatus) String() string {
	switch s {
	case BidRejected:
		return "rejected"
	case BidAccepted:
		return "accepted"
	case BidLeading:
		return "leading"
	default:
		return "unknown"
	}
}

func (s BidStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *BidStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "rejected":
		*s = BidRejected
	case "accepted":
		*s = BidAccepted
	case "leading":
		*s = BidLeading
	default:
		return fmt.Errorf("unknown bid status: %q", raw)
	}
	return nil
}

// BidOutcome is the decision reported to the submitter. It matches the
// status the new bid was persisted with; a later demotion changes the bid's
// status but never the outcome that was reported.
type BidOutcome string

const (
	OutcomeRejected BidOutcome = "rejected"
	OutcomeAccepted BidOutcome = "accepted"
	OutcomeLeading  BidOutcome = "leading"
)

type Listing struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	BasePrice float64   `json:"base_price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ListingID string    `json:"listing_id"`
	BidID     string    `json:"bid_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// OutboxEntry is a notification intent written in the same transaction as
// the bid it belongs to. The relay drains pending entries into the
// notification store, so a bid commit never waits on delivery.
type OutboxEntry struct {
	ID        string
	UserID    string
	ListingID string
	BidID     string
	Message   string
	Status    OutboxStatus
	CreatedAt time.Time
}

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxDispatched OutboxStatus = "dispatched"
)

// BidPlacement is the atomic unit the ledger commits for one PlaceBid call:
// the new bid, at most one demotion of the prior leader, and the
// notification intents produced by the decision.
type BidPlacement struct {
	Bid         *Bid
	DemoteBidID string
	Outbox      []*OutboxEntry
}

type BidEvent struct {
	Type      BidEventType `json:"type"`
	ListingID string       `json:"listing_id"`
	UserID    string       `json:"user_id"`
	BidID     string       `json:"bid_id"`
	Amount    float64      `json:"amount"`
	Timestamp time.Time    `json:"timestamp"`
}

type BidEventType string

const (
	EventBidRejected  BidEventType = "bid_rejected"
	EventBidAccepted  BidEventType = "bid_accepted"
	EventBidLeading   BidEventType = "bid_leading"
	EventBidderOutbid BidEventType = "bidder_outbid"
)

// LeaderSnapshot is the cached view of a listing's current leader served to
// read paths. The ledger stays authoritative; snapshots expire.
type LeaderSnapshot struct {
	ListingID string    `json:"listing_id"`
	BidID     string    `json:"bid_id"`
	UserID    string    `json:"user_id"`
	Amount    float64   `json:"amount"`
	PlacedAt  time.Time `json:"placed_at"`
}
