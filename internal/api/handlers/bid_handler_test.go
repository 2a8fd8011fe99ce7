package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"property-bidding/internal/api/handlers"
	"property-bidding/internal/domain"
	"property-bidding/internal/infrastructure/memory"
	"property-bidding/internal/services"
	"property-bidding/pkg/logger"

	"github.com/labstack/echo/v4"
)

const (
	testListing = "listing-villa"
	testUser    = "user-1"
)

type testAPI struct {
	echo          *echo.Echo
	store         *memory.Store
	relay         *services.OutboxRelay
	bids          *handlers.BidHandler
	listings      *handlers.ListingHandler
	notifications *handlers.NotificationHandler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.NewStore()
	locker := memory.NewLocker(500 * time.Millisecond)
	log := logger.Nop()

	if err := store.CreateListing(context.Background(), &domain.Listing{
		ID:        testListing,
		Title:     "Seaside villa",
		BasePrice: 100000,
	}); err != nil {
		t.Fatalf("failed to seed listing: %v", err)
	}
	store.AddUser(&domain.User{ID: testUser, Name: "Alice"})
	store.AddUser(&domain.User{ID: "user-2", Name: "Bob"})

	placement := services.NewBidPlacementService(store, store, store, locker, log)
	resolver := services.NewHighestBidResolver(store, log)
	relay := services.NewOutboxRelay(store, store, 100, log)

	return &testAPI{
		echo:          echo.New(),
		store:         store,
		relay:         relay,
		bids:          handlers.NewBidHandler(placement, store, store, log),
		listings:      handlers.NewListingHandler(store, resolver, log),
		notifications: handlers.NewNotificationHandler(store, log),
	}
}

func (a *testAPI) request(method, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return rec, a.echo.NewContext(req, rec)
}

func (a *testAPI) placeBid(t *testing.T, listingID, userID string, amount float64) *httptest.ResponseRecorder {
	t.Helper()

	rec, c := a.request(http.MethodPost, `{"user_id":"`+userID+`","amount":`+jsonNumber(amount)+`}`)
	c.SetParamNames("id")
	c.SetParamValues(listingID)
	if err := a.bids.PlaceBid(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func jsonNumber(amount float64) string {
	data, _ := json.Marshal(amount)
	return string(data)
}

func TestPlaceBidEndpointReturnsCreatedWithOutcome(t *testing.T) {
	api := newTestAPI(t)

	rec := api.placeBid(t, testListing, testUser, 120000)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handlers.PlaceBidResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Outcome != domain.OutcomeLeading {
		t.Errorf("expected outcome leading, got %s", resp.Outcome)
	}
	if resp.Bid == nil || resp.Bid.Amount != 120000 {
		t.Errorf("unexpected bid in response: %+v", resp.Bid)
	}
}

func TestPlaceBidEndpointRejectsInvalidInput(t *testing.T) {
	api := newTestAPI(t)

	rec := api.placeBid(t, testListing, testUser, -5)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative amount: expected 400, got %d", rec.Code)
	}

	rec, c := api.request(http.MethodPost, `{"amount":120000}`)
	c.SetParamNames("id")
	c.SetParamValues(testListing)
	if err := api.bids.PlaceBid(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: expected 400, got %d", rec.Code)
	}
}

func TestPlaceBidEndpointUnknownListing(t *testing.T) {
	api := newTestAPI(t)

	rec := api.placeBid(t, "listing-missing", testUser, 120000)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

type failingLocker struct{}

func (failingLocker) Acquire(ctx context.Context, listingID string) (string, error) {
	return "", domain.ErrBidContention
}

func (failingLocker) Release(ctx context.Context, listingID, token string) error {
	return nil
}

func TestPlaceBidEndpointContentionMapsToServiceUnavailable(t *testing.T) {
	api := newTestAPI(t)

	placement := services.NewBidPlacementService(api.store, api.store, api.store, failingLocker{}, logger.Nop())
	contended := handlers.NewBidHandler(placement, api.store, api.store, logger.Nop())

	rec, c := api.request(http.MethodPost, `{"user_id":"`+testUser+`","amount":120000}`)
	c.SetParamNames("id")
	c.SetParamValues(testListing)
	if err := contended.PlaceBid(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 on contention, got %d", rec.Code)
	}
}

func TestBidOverviewEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec, c := api.request(http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues("listing-missing")
	if err := api.listings.BidOverview(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown listing: expected 404, got %d", rec.Code)
	}

	api.placeBid(t, testListing, testUser, 120000)

	rec, c = api.request(http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues(testListing)
	if err := api.listings.BidOverview(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp handlers.BidOverviewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Property == nil || resp.Property.ID != testListing {
		t.Errorf("unexpected property: %+v", resp.Property)
	}
	if resp.CurrentBid == nil || resp.CurrentBid.Amount != 120000 {
		t.Errorf("unexpected current bid: %+v", resp.CurrentBid)
	}
}

func TestBidHistoryEndpoint(t *testing.T) {
	api := newTestAPI(t)

	api.placeBid(t, testListing, testUser, 120000)
	api.placeBid(t, testListing, "user-2", 150000)

	rec, c := api.request(http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues(testListing)
	if err := api.bids.BidHistory(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var bids []*domain.Bid
	if err := json.Unmarshal(rec.Body.Bytes(), &bids); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(bids))
	}
	if bids[0].Amount != 120000 || bids[1].Amount != 150000 {
		t.Errorf("history not ordered by placement time: %+v", bids)
	}
}

func TestNotificationsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	api.placeBid(t, testListing, testUser, 120000)
	api.placeBid(t, testListing, "user-2", 150000)
	api.relay.Drain(context.Background())

	rec, c := api.request(http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues(testUser)
	if err := api.notifications.Notifications(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var list []*domain.Notification
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications (leading, then outbid), got %d", len(list))
	}

	// A user with no notifications gets an empty array, not null.
	rec, c = api.request(http.MethodGet, "")
	c.SetParamNames("id")
	c.SetParamValues("user-quiet")
	if err := api.notifications.Notifications(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty JSON array, got %q", rec.Body.String())
	}
}

func TestCreateListingEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec, c := api.request(http.MethodPost, `{"title":"City loft","base_price":250000}`)
	if err := api.listings.CreateListing(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var listing domain.Listing
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if listing.ID == "" || listing.BasePrice != 250000 {
		t.Errorf("unexpected listing: %+v", listing)
	}

	rec, c = api.request(http.MethodPost, `{"title":"Free house","base_price":0}`)
	if err := api.listings.CreateListing(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-positive base price: expected 400, got %d", rec.Code)
	}
}
