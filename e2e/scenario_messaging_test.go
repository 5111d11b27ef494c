package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bell-registry/client"
	"bell-registry/domain"
	"bell-registry/domain/event"
)

type testMessagingSuite struct {
	BaseHTTPSuite
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, &testMessagingSuite{})
}

// startController connects a reconnecting stream client for token and
// returns a channel carrying every application event it receives.
func (s *testMessagingSuite) startController(ctx context.Context, token string) (*client.Controller, chan event.StreamEvent) {
	controller := client.New(client.Options{
		StreamURL: s.BaseURL() + "/api/messages/stream",
		Token:     token,
	})
	events := make(chan event.StreamEvent, 16)
	controller.Subscribe("scenario", func(e event.StreamEvent) { events <- e })
	controller.Start(ctx)

	s.Require().Eventually(func() bool {
		return controller.State() == client.StateConnected
	}, 5*time.Second, 20*time.Millisecond, "stream never connected")
	return controller, events
}

func waitForEvent(s *testMessagingSuite, events chan event.StreamEvent, eventType string) event.StreamEvent {
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-events:
			if e.Type == eventType {
				return e
			}
		case <-deadline:
			s.FailNowf("timed out", "no %q event arrived", eventType)
			return event.StreamEvent{}
		}
	}
}

func requireSilent(s *testMessagingSuite, events chan event.StreamEvent) {
	select {
	case e := <-events:
		s.FailNowf("unexpected event", "got %q for conversation %q", e.Type, e.ConversationID)
	case <-time.After(200 * time.Millisecond):
	}
}

func messagePayload(s *testMessagingSuite, e event.StreamEvent) domain.Message {
	raw, err := json.Marshal(e.Data)
	s.Require().NoError(err)
	var m domain.Message
	s.Require().NoError(json.Unmarshal(raw, &m))
	return m
}

func (s *testMessagingSuite) TestFullMessagingFlow() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		clientToken, clientID string
		proToken, proID       string
		clientEvents          chan event.StreamEvent
		proEvents             chan event.StreamEvent
		conversationID        string
	)

	// --- STEP 0: ACCOUNTS ---
	s.Run("Step 0: Register a client and a professional", func() {
		s.Step("Registering both sides of the marketplace")
		clientToken, clientID = s.RegisterUser("carol@example.com", "S3cure!passwd", "CLIENT")
		proToken, proID = s.RegisterUser("paul@example.com", "S3cure!passwd", "PROFESSIONAL")
		s.Require().NotEqual(clientID, proID)
	})

	// --- STEP 1: LIVE STREAMS ---
	s.Run("Step 1: Both users connect their event streams", func() {
		s.Step("Opening one stream per user")
		var clientController, proController *client.Controller
		clientController, clientEvents = s.startController(ctx, clientToken)
		proController, proEvents = s.startController(ctx, proToken)

		s.Require().NotEmpty(clientController.ConnectionID())
		s.Require().NotEmpty(proController.ConnectionID())
		s.Require().Equal(2, s.Registry.ConnectedUsers())
	})

	// --- STEP 2: CONVERSATION OPENING RULES ---
	s.Run("Step 2: Only the client may open the conversation", func() {
		s.Step("Professional attempt is refused, client attempt succeeds")
		status := s.PostJSON("/api/conversations/", proToken,
			map[string]string{"professionalId": clientID}, nil)
		s.Require().Equal(http.StatusForbidden, status)

		var conversation domain.Conversation
		status = s.PostJSON("/api/conversations/", clientToken,
			map[string]string{"professionalId": proID}, &conversation)
		s.Require().Equal(http.StatusCreated, status)
		s.Require().Equal(domain.ConversationActive, conversation.Status)
		conversationID = conversation.ID
	})

	// --- STEP 3: REPLY GATE ---
	s.Run("Step 3: Professional cannot write before the client has", func() {
		s.Step("Cold outreach is blocked and emits nothing")
		status := s.PostJSON("/api/messages", proToken, map[string]string{
			"conversationId": conversationID,
			"content":        "allow me to introduce myself",
		}, nil)
		s.Require().Equal(http.StatusForbidden, status)
		requireSilent(s, clientEvents)
		requireSilent(s, proEvents)
	})

	// --- STEP 4: FIRST MESSAGE, SCREENED AND FANNED OUT ---
	s.Run("Step 4: Client message is screened and reaches both streams", func() {
		s.Step("Sending a message carrying contact details")
		var sent domain.Message
		status := s.PostJSON("/api/messages", clientToken, map[string]string{
			"conversationId": conversationID,
			"content":        "hello! reach me on WhatsApp at 0612345678",
		}, &sent)
		s.Require().Equal(http.StatusCreated, status)
		s.Require().NotContains(strings.ToLower(sent.Content), "whatsapp")
		s.Require().NotContains(sent.Content, "0612345678")
		s.Require().Contains(sent.Content, "hello!")

		clientCopy := messagePayload(s, waitForEvent(s, clientEvents, event.TypeNewMessage))
		proCopy := messagePayload(s, waitForEvent(s, proEvents, event.TypeNewMessage))
		s.Require().Equal(sent.ID, clientCopy.ID)
		s.Require().Equal(sent.Content, proCopy.Content)

		// Only the receiving side gets the badge notification
		notification := waitForEvent(s, proEvents, event.TypeMessageNotification)
		s.Require().Equal(conversationID, notification.ConversationID)
		requireSilent(s, clientEvents)
	})

	// --- STEP 5: PROFESSIONAL REPLY ---
	s.Run("Step 5: Professional may reply once the client has written", func() {
		s.Step("Replying on the now open conversation")
		var reply domain.Message
		status := s.PostJSON("/api/messages", proToken, map[string]string{
			"conversationId": conversationID,
			"content":        "happy to help, what do you need?",
		}, &reply)
		s.Require().Equal(http.StatusCreated, status)
		s.Require().Equal(proID, reply.SenderID)

		waitForEvent(s, proEvents, event.TypeNewMessage)
		waitForEvent(s, clientEvents, event.TypeNewMessage)
		waitForEvent(s, clientEvents, event.TypeMessageNotification)
	})

	// --- STEP 6: HISTORY ---
	s.Run("Step 6: History pages newest first", func() {
		s.Step("Fetching the conversation history")
		var page struct {
			Messages []domain.Message `json:"messages"`
			Cursor   *string          `json:"cursor"`
		}
		status := s.GetJSON("/api/conversations/"+conversationID+"/messages", clientToken, &page)
		s.Require().Equal(http.StatusOK, status)
		s.Require().Len(page.Messages, 2)
		s.Require().Equal(proID, page.Messages[0].SenderID)
		s.Require().Equal(clientID, page.Messages[1].SenderID)

		// And an outsider cannot even learn the conversation exists
		intruderToken, _ := s.RegisterUser("mallory@example.com", "S3cure!passwd", "CLIENT")
		status = s.GetJSON("/api/conversations/"+conversationID+"/messages", intruderToken, nil)
		s.Require().Equal(http.StatusNotFound, status)
	})

	// --- STEP 7: ENDING ---
	s.Run("Step 7: Ending closes the conversation for both sides", func() {
		s.Step("Client ends the conversation")
		status := s.PostJSON("/api/conversations/"+conversationID+"/end", clientToken, nil, nil)
		s.Require().Equal(http.StatusNoContent, status)

		ended := waitForEvent(s, clientEvents, event.TypeConversationEnded)
		s.Require().Equal(conversationID, ended.ConversationID)
		waitForEvent(s, proEvents, event.TypeConversationEnded)

		status = s.PostJSON("/api/messages", clientToken, map[string]string{
			"conversationId": conversationID,
			"content":        "one last thing",
		}, nil)
		s.Require().Equal(http.StatusForbidden, status)
	})
}
