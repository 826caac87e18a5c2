package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ItsSkellyHer3/ChatIfy/contract"
	"github.com/ItsSkellyHer3/ChatIfy/domain"
)

type recordingService struct {
	identified []string
	joined     []string
	typing     []domain.TypingCommand
	reactions  []domain.ReactionCommand
	messages   []domain.SendMessageCommand
}

func (r *recordingService) Connect(contract.EventSink) string { return "conn" }
func (r *recordingService) Identify(_, uid string) {
	r.identified = append(r.identified, uid)
}
func (r *recordingService) Join(_, cid string) { r.joined = append(r.joined, cid) }
func (r *recordingService) Typing(_ string, cmd domain.TypingCommand) {
	r.typing = append(r.typing, cmd)
}
func (r *recordingService) AddReaction(cmd domain.ReactionCommand) {
	r.reactions = append(r.reactions, cmd)
}
func (r *recordingService) SendMessage(cmd domain.SendMessageCommand) {
	r.messages = append(r.messages, cmd)
}
func (r *recordingService) Disconnect(string) {}
func (r *recordingService) CreateGuest(name, avatar string) (domain.User, error) {
	return domain.User{}, nil
}
func (r *recordingService) UpdateProfile(uid, name, avatar string) (domain.User, error) {
	return domain.User{}, nil
}
func (r *recordingService) ListActiveUsers() ([]domain.User, error) { return nil, nil }
func (r *recordingService) ListChannels() ([]domain.Channel, error) { return nil, nil }
func (r *recordingService) History(string) ([]domain.Message, error) { return nil, nil }
func (r *recordingService) DeleteMessage(mid, uid string) error { return nil }

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestDispatchRoutesCommands(t *testing.T) {
	svc := &recordingService{}
	h := NewHandler(svc, 8, testLogger())

	h.dispatch("conn", []byte(`{"event":"identify","data":"alex-1"}`), testLogger())
	h.dispatch("conn", []byte(`{"event":"join","data":"general"}`), testLogger())
	h.dispatch("conn", []byte(`{"event":"typing","data":{"cid":"general","uid":"alex-1","isTyping":true}}`), testLogger())
	h.dispatch("conn", []byte(`{"event":"add_reaction","data":{"mid":"m1","emoji":"🔥","uid":"alex-1"}}`), testLogger())
	h.dispatch("conn", []byte(`{"event":"send_message","data":{"cid":"general","text":"hey","uid":"alex-1","nonce":"n1"}}`), testLogger())

	require.Equal(t, []string{"alex-1"}, svc.identified)
	require.Equal(t, []string{"general"}, svc.joined)
	require.Len(t, svc.typing, 1)
	require.True(t, svc.typing[0].IsTyping)
	require.Len(t, svc.reactions, 1)
	require.Equal(t, "🔥", svc.reactions[0].Emoji)
	require.Len(t, svc.messages, 1)
	require.Equal(t, "n1", svc.messages[0].Nonce)
}

func TestDispatchIgnoresMalformedInput(t *testing.T) {
	svc := &recordingService{}
	h := NewHandler(svc, 8, testLogger())

	h.dispatch("conn", []byte(`not json`), testLogger())
	h.dispatch("conn", []byte(`{"event":"identify","data":{"no":"string"}}`), testLogger())
	h.dispatch("conn", []byte(`{"event":"send_message","data":"not an object"}`), testLogger())
	h.dispatch("conn", []byte(`{"event":"warp_drive","data":{}}`), testLogger())

	require.Empty(t, svc.identified)
	require.Empty(t, svc.messages)
}

func TestDeliverDropsWhenBufferFull(t *testing.T) {
	c := NewClient(nil, 1, testLogger())

	err := c.Deliver(domain.Event{Name: domain.EventTypingUpdate, Payload: domain.TypingUpdatePayload{CID: "general"}})
	require.NoError(t, err)

	err = c.Deliver(domain.Event{Name: domain.EventTypingUpdate, Payload: domain.TypingUpdatePayload{CID: "general"}})
	require.Error(t, err)

	b := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(b, &env))
	require.Equal(t, domain.EventTypingUpdate, env.Event)
}

func TestDeliverAfterCloseReturnsError(t *testing.T) {
	c := NewClient(nil, 1, testLogger())
	c.Close()
	c.Close()

	err := c.Deliver(domain.Event{Name: domain.EventMessage, Payload: domain.MessagePayload{ID: "m1"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection closed")
}

func TestDeliverRacingCloseNeverPanics(t *testing.T) {
	c := NewClient(nil, 4, testLogger())
	event := domain.Event{Name: domain.EventMessage, Payload: domain.MessagePayload{ID: "m1"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Deliver(event)
			}
		}()
	}
	c.Close()
	wg.Wait()

	err := c.Deliver(event)
	require.Error(t, err)
}
