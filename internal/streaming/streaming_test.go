package streaming

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhankavach/internal/domain/models"
	"dhankavach/pkg/logger"
)

func flagged(kind models.EntityKind) models.FlaggedEntity {
	now := time.Now().UTC()
	return models.FlaggedEntity{ID: "8765432109", Kind: kind, RiskScore: 9,
		Source: models.EntitySourceDocument, SourceRef: "doc-1", FirstSeen: now, LastSeen: now}
}

func TestEventSubjects(t *testing.T) {
	e := NewEntityFlaggedEvent("household-1", flagged(models.EntityKindPhone))
	assert.Equal(t, "dhankavach.entity.flagged.phone", e.Subject("dhankavach"))

	req := models.NewFamilyApprovalRequest("household-1", "tx-1", 10, nil)
	assert.Equal(t, "dhankavach.approval.pending", NewApprovalEvent(req).Subject("dhankavach"))

	assert.Equal(t, "p.entity.flagged.doc_hash", NewEntityFlaggedEvent("h", flagged("DOC.HASH")).Subject("p"))
	assert.Equal(t, "p.approval.unknown", (&Event{Type: EventTypeApproval}).Subject("p"))
}

func TestApprovalEventIsASnapshot(t *testing.T) {
	req := models.NewFamilyApprovalRequest("household-1", "tx-1", 10, []string{"a"})
	e := NewApprovalEvent(req)
	require.NoError(t, req.Resolve(models.ApprovalApproved, "beti", time.Now()))
	req.Reasons[0] = "changed"

	assert.Equal(t, models.ApprovalPending, e.Approval.Status)
	assert.Equal(t, []string{"a"}, e.Approval.Reasons)
}

func TestSubscriptionMatches(t *testing.T) {
	e := NewEntityFlaggedEvent("household-1", flagged(models.EntityKindUPI))

	var none *Subscription
	assert.True(t, none.Matches(e))
	assert.True(t, (&Subscription{ProfileID: "household-1"}).Matches(e))
	assert.False(t, (&Subscription{ProfileID: "household-2"}).Matches(e))
	assert.True(t, (&Subscription{Types: []EventType{EventTypeEntityFlagged}}).Matches(e))
	assert.False(t, (&Subscription{Types: []EventType{EventTypeApproval}}).Matches(e))
}

func TestEventBusDeliversToMatchingSubscribers(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()
	ctx := context.Background()

	mine, unsubscribe := bus.Subscribe(&Subscription{ProfileID: "household-1"})
	other, _ := bus.Subscribe(&Subscription{ProfileID: "household-2"})
	assert.Equal(t, 2, bus.SubscriberCount())

	require.NoError(t, bus.PublishEntityFlagged(ctx, "household-1", flagged(models.EntityKindPhone)))

	select {
	case e := <-mine:
		assert.Equal(t, EventTypeEntityFlagged, e.Type)
		assert.Equal(t, "8765432109", e.Entity.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	assert.Empty(t, other)

	unsubscribe()
	unsubscribe()
	_, open := <-mine
	assert.False(t, open)
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestEventBusClosedSubscribeReturnsClosedChannel(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	bus.Close()

	ch, _ := bus.Subscribe(nil)
	_, open := <-ch
	assert.False(t, open)
}

func TestWebSocketStreamsProfileEvents(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()
	hub := NewWebSocketHub(bus, logger.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWebSocket))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?profile_id=household-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	req := models.NewFamilyApprovalRequest("household-1", "tx-1", 10, []string{"connected_intelligence_match"})
	require.NoError(t, bus.PublishApproval(context.Background(), req))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, EventTypeApproval, got.Type)
	require.NotNil(t, got.Approval)
	assert.Equal(t, req.ID, got.Approval.ID)
}

func TestWebSocketRequiresProfile(t *testing.T) {
	hub := NewWebSocketHub(NewEventBus(nil, logger.NewNop()), logger.NewNop())
	rec := httptest.NewRecorder()
	hub.ServeWebSocket(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, 400, rec.Code)
}
