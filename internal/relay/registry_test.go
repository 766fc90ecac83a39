package relay

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bugmeet/internal/config"
	"bugmeet/pkg/logger"
)

func newTestRegistry() *Registry {
	cfg := config.RelayConfig{
		SendBufferSize: 16,
		MaxMessageSize: 65536,
		WriteTimeout:   time.Second,
		PongTimeout:    time.Minute,
	}
	return NewRegistry(cfg, logger.New("error"))
}

func recvMessage(t *testing.T, p *Peer) map[string]any {
	t.Helper()
	select {
	case raw := <-p.send:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	default:
		t.Fatal("expected a queued message, got none")
		return nil
	}
}

func requireNoMessage(t *testing.T, p *Peer) {
	t.Helper()
	select {
	case raw := <-p.send:
		t.Fatalf("unexpected message: %s", raw)
	default:
	}
}

func peerIDs(msg map[string]any) []string {
	raw := msg["peers"].([]any)
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, v.(string))
	}
	return ids
}

func TestRegistry_FirstJoinCreatesRoom(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p := reg.NewPeer(nil)

	reg.Join("K7M2QX9PLR", p)

	req.Equal(1, reg.RoomCount())
	req.Equal(1, reg.RoomSize("K7M2QX9PLR"))

	msg := recvMessage(t, p)
	req.Equal(MessageTypePeers, msg["type"])
	req.Equal([]string{p.ID}, peerIDs(msg))
	requireNoMessage(t, p)
}

func TestRegistry_JoinNotifiesExistingMembers(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p1 := reg.NewPeer(nil)
	p2 := reg.NewPeer(nil)

	reg.Join("ROOM", p1)
	recvMessage(t, p1)

	reg.Join("ROOM", p2)

	// снимок для p2 берется после его вставки: содержит обоих
	snapshot := recvMessage(t, p2)
	req.Equal(MessageTypePeers, snapshot["type"])
	req.ElementsMatch([]string{p1.ID, p2.ID}, peerIDs(snapshot))

	// уже присутствующий p1 получает ровно один peer-joined
	joined := recvMessage(t, p1)
	req.Equal(MessageTypePeerJoined, joined["type"])
	req.Equal(p2.ID, joined["peerId"])
	requireNoMessage(t, p1)
	requireNoMessage(t, p2)
}

func TestRegistry_MembershipArithmetic(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()

	const joins = 5
	peers := make([]*Peer, 0, joins)
	for i := 0; i < joins; i++ {
		p := reg.NewPeer(nil)
		reg.Join("ROOM", p)
		peers = append(peers, p)
	}
	req.Equal(joins, reg.RoomSize("ROOM"))

	for i := 0; i < 3; i++ {
		reg.Leave(peers[i])
		req.Equal(joins-i-1, reg.RoomSize("ROOM"))
	}

	reg.Leave(peers[3])
	reg.Leave(peers[4])

	// после ухода последнего пира комнаты нет совсем
	req.Equal(0, reg.RoomSize("ROOM"))
	req.Equal(0, reg.RoomCount())
}

func TestRegistry_SignalUnicast(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p1 := reg.NewPeer(nil)
	p2 := reg.NewPeer(nil)
	p3 := reg.NewPeer(nil)
	for _, p := range []*Peer{p1, p2, p3} {
		reg.Join("ROOM", p)
	}
	drainAll(p1, p2, p3)

	payload := &SignalPayload{To: p1.ID, Signal: json.RawMessage(`{"kind":"offer"}`)}
	reg.Signal("ROOM", p2, payload)

	msg := recvMessage(t, p1)
	req.Equal(MessageTypeSignal, msg["type"])
	req.Equal(p2.ID, msg["from"])
	req.Equal("offer", msg["signal"].(map[string]any)["kind"])

	requireNoMessage(t, p2)
	requireNoMessage(t, p3)
}

func TestRegistry_SignalBroadcastWhenUnaddressed(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p1 := reg.NewPeer(nil)
	p2 := reg.NewPeer(nil)
	p3 := reg.NewPeer(nil)
	for _, p := range []*Peer{p1, p2, p3} {
		reg.Join("ROOM", p)
	}
	drainAll(p1, p2, p3)

	reg.Signal("ROOM", p2, &SignalPayload{Signal: json.RawMessage(`{"kind":"offer"}`)})

	for _, p := range []*Peer{p1, p3} {
		msg := recvMessage(t, p)
		req.Equal(MessageTypeSignal, msg["type"])
		req.Equal(p2.ID, msg["from"])
	}
	requireNoMessage(t, p2)
}

func TestRegistry_SignalFallsBackToBroadcastForUnknownTarget(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p1 := reg.NewPeer(nil)
	p2 := reg.NewPeer(nil)
	reg.Join("ROOM", p1)
	reg.Join("ROOM", p2)
	drainAll(p1, p2)

	// to указывает на пира которого нет в комнате: сообщение уходит всем
	// остальным - так новый пир получает offer от тех, кто его еще не знает
	reg.Signal("ROOM", p2, &SignalPayload{To: "no-such-peer", Signal: json.RawMessage(`{}`)})

	msg := recvMessage(t, p1)
	req.Equal(MessageTypeSignal, msg["type"])
	requireNoMessage(t, p2)
}

func TestRegistry_LeaveNotifiesRemainingAndDeletesEmptyRoom(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p1 := reg.NewPeer(nil)
	p2 := reg.NewPeer(nil)
	reg.Join("ROOM", p1)
	reg.Join("ROOM", p2)
	drainAll(p1, p2)

	reg.Leave(p1)

	msg := recvMessage(t, p2)
	req.Equal(MessageTypePeerLeft, msg["type"])
	req.Equal(p1.ID, msg["peerId"])
	req.Equal(1, reg.RoomSize("ROOM"))

	reg.Leave(p2)
	req.Equal(0, reg.RoomCount())
	requireNoMessage(t, p2)
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	reg := newTestRegistry()
	p := reg.NewPeer(nil)
	reg.Join("ROOM", p)
	recvMessage(t, p)

	reg.Leave(p)
	reg.Leave(p)

	require.Equal(t, 0, reg.RoomCount())
}

func TestRegistry_NoCrossRoomInterference(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	a1 := reg.NewPeer(nil)
	a2 := reg.NewPeer(nil)
	b1 := reg.NewPeer(nil)
	reg.Join("ROOM-A", a1)
	reg.Join("ROOM-A", a2)
	reg.Join("ROOM-B", b1)
	drainAll(a1, a2, b1)

	reg.Leave(a1)

	recvMessage(t, a2)
	requireNoMessage(t, b1)
	req.Equal(1, reg.RoomSize("ROOM-B"))
}

func TestRegistry_DuplicateJoinMigratesRooms(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p := reg.NewPeer(nil)
	other := reg.NewPeer(nil)
	reg.Join("ROOM-A", p)
	reg.Join("ROOM-A", other)
	drainAll(p, other)

	reg.Join("ROOM-B", p)

	// старая комната получает peer-left, членство не подвисает
	left := recvMessage(t, other)
	req.Equal(MessageTypePeerLeft, left["type"])
	req.Equal(p.ID, left["peerId"])

	snapshot := recvMessage(t, p)
	req.Equal(MessageTypePeers, snapshot["type"])
	req.Equal([]string{p.ID}, peerIDs(snapshot))

	req.Equal(1, reg.RoomSize("ROOM-A"))
	req.Equal(1, reg.RoomSize("ROOM-B"))
}

func TestRegistry_RejoinSameRoomReturnsSnapshotOnly(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p1 := reg.NewPeer(nil)
	p2 := reg.NewPeer(nil)
	reg.Join("ROOM", p1)
	reg.Join("ROOM", p2)
	drainAll(p1, p2)

	reg.Join("ROOM", p1)

	snapshot := recvMessage(t, p1)
	req.Equal(MessageTypePeers, snapshot["type"])
	req.ElementsMatch([]string{p1.ID, p2.ID}, peerIDs(snapshot))
	requireNoMessage(t, p2)
	req.Equal(2, reg.RoomSize("ROOM"))
}

func TestRegistry_DispatchDropsMalformedInput(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p := reg.NewPeer(nil)

	cases := [][]byte{
		[]byte(`not json at all`),
		[]byte(`42`),
		[]byte(`"string"`),
		[]byte(`{"type":"unknown-type","code":"ROOM"}`),
		[]byte(`{"type":"join"}`),
		[]byte(`{"type":"signal","code":"ROOM"}`),
	}

	for _, raw := range cases {
		reg.Dispatch(p, raw)
	}

	req.Equal(0, reg.RoomCount())
	requireNoMessage(t, p)
}

func TestRegistry_DispatchJoinAndSignal(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	p1 := reg.NewPeer(nil)
	p2 := reg.NewPeer(nil)

	reg.Dispatch(p1, []byte(`{"type":"join","code":"ROOM"}`))
	reg.Dispatch(p2, []byte(`{"type":"join","code":"ROOM"}`))
	drainAll(p1, p2)

	raw := fmt.Sprintf(`{"type":"signal","code":"ROOM","payload":{"to":%q,"signal":{"sdp":"v=0"}}}`, p1.ID)
	reg.Dispatch(p2, []byte(raw))

	msg := recvMessage(t, p1)
	req.Equal(MessageTypeSignal, msg["type"])
	req.Equal(p2.ID, msg["from"])
	req.Equal("v=0", msg["signal"].(map[string]any)["sdp"])
	requireNoMessage(t, p2)
}

func TestRegistry_FullBufferDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	reg := newTestRegistry()
	slow := reg.NewPeer(nil)
	fast := reg.NewPeer(nil)
	sender := reg.NewPeer(nil)
	reg.Join("ROOM", slow)
	reg.Join("ROOM", fast)
	reg.Join("ROOM", sender)
	drainAll(slow, fast, sender)

	// забиваем очередь медленного пира до отказа
	for i := 0; i < cap(slow.send); i++ {
		slow.enqueue([]byte(`{}`))
	}

	reg.Signal("ROOM", sender, &SignalPayload{Signal: json.RawMessage(`{"n":1}`)})

	// быстрый пир получил сообщение несмотря на застрявшего соседа
	msg := recvMessage(t, fast)
	req.Equal(MessageTypeSignal, msg["type"])
}

func drainAll(peers ...*Peer) {
	for _, p := range peers {
	drain:
		for {
			select {
			case <-p.send:
			default:
				break drain
			}
		}
	}
}
