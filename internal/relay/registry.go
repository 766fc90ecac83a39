package relay

import (
	"encoding/json"
	"sync"

	"bugmeet/internal/config"
	"bugmeet/pkg/logger"
)

// Registry владеет таблицей живых комнат: код митинга -> подключенные пиры.
// Комната существует только пока в ней есть хотя бы один пир. Registry не
// обращается к Postgres - незарегистрированный код образует временную
// комнату, это принятое поведение.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[string]*Peer

	cfg config.RelayConfig
	log logger.Logger
}

func NewRegistry(cfg config.RelayConfig, log logger.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]map[string]*Peer),
		cfg:   cfg,
		log:   log,
	}
}

// Dispatch обрабатывает сырое сообщение от пира. Невалидный JSON и
// неизвестные типы молча отбрасываются: один плохой пир не должен
// затрагивать остальных в комнате.
func (r *Registry) Dispatch(p *Peer, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.log.Debug("Dropping malformed relay message", "peer_id", p.ID, "error", err)
		return
	}

	switch env.Type {
	case MessageTypeJoin:
		if env.Code == "" {
			return
		}
		r.Join(env.Code, p)
	case MessageTypeSignal:
		if env.Code == "" || env.Payload == nil {
			return
		}
		r.Signal(env.Code, p, env.Payload)
	default:
		// неизвестный тип игнорируется
	}
}

// Join добавляет пира в комнату code. Снимок состава берется атомарно
// после вставки, поэтому joiner видит себя в списке. Если пир уже был в
// другой комнате, он атомарно мигрирует: старая комната получает peer-left.
func (r *Registry) Join(code string, p *Peer) {
	r.mu.Lock()

	if p.room == code {
		// повторный join в ту же комнату: отвечаем свежим снимком без
		// дублирования peer-joined
		ids := r.memberIDsLocked(code)
		r.mu.Unlock()
		p.enqueue(marshalPeers(ids))
		return
	}

	var prevMembers []*Peer
	prevRoom := p.room
	if prevRoom != "" {
		prevMembers = r.removeLocked(p)
	}

	room, ok := r.rooms[code]
	if !ok {
		room = make(map[string]*Peer)
		r.rooms[code] = room
	}
	room[p.ID] = p
	p.room = code

	ids := make([]string, 0, len(room))
	others := make([]*Peer, 0, len(room)-1)
	for id, member := range room {
		ids = append(ids, id)
		if member != p {
			others = append(others, member)
		}
	}
	r.mu.Unlock()

	if prevRoom != "" {
		r.log.Info("Peer migrated between rooms", "peer_id", p.ID, "from", prevRoom, "to", code)
		r.fanout(prevMembers, marshalPeerLeft(p.ID))
	}

	r.fanout(others, marshalPeerJoined(p.ID))
	p.enqueue(marshalPeers(ids))

	r.log.Info("Peer joined room", "peer_id", p.ID, "code", code, "room_size", len(ids))
}

// Signal доставляет полезную нагрузку: адресно, если to указывает на
// присутствующего пира, иначе всем остальным в комнате. Fallback на
// broadcast обязателен - так новые пиры получают offer от тех, кто еще
// не знает их id.
func (r *Registry) Signal(code string, from *Peer, payload *SignalPayload) {
	msg := marshalSignal(from.ID, payload.Signal)

	r.mu.Lock()
	room, ok := r.rooms[code]
	if !ok {
		r.mu.Unlock()
		return
	}

	if payload.To != "" {
		if target, present := room[payload.To]; present {
			r.mu.Unlock()
			target.enqueue(msg)
			return
		}
	}

	recipients := make([]*Peer, 0, len(room))
	for _, member := range room {
		if member != from {
			recipients = append(recipients, member)
		}
	}
	r.mu.Unlock()

	r.fanout(recipients, msg)
}

// Leave убирает пира из его комнаты и рассылает peer-left оставшимся.
// Пустая комната удаляется сразу. Повторный вызов безопасен.
func (r *Registry) Leave(p *Peer) {
	r.mu.Lock()
	code := p.room
	remaining := r.removeLocked(p)
	r.mu.Unlock()

	p.shutdown()

	if code == "" {
		return
	}

	r.fanout(remaining, marshalPeerLeft(p.ID))
	r.log.Info("Peer left room", "peer_id", p.ID, "code", code, "room_size", len(remaining))
}

// RoomSize возвращает число пиров в комнате (0 если комнаты нет)
func (r *Registry) RoomSize(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[code])
}

// RoomCount возвращает число живых комнат
func (r *Registry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// removeLocked вынимает пира из его комнаты и возвращает оставшихся.
// Вызывается только под r.mu.
func (r *Registry) removeLocked(p *Peer) []*Peer {
	if p.room == "" {
		return nil
	}

	room, ok := r.rooms[p.room]
	if !ok {
		p.room = ""
		return nil
	}

	delete(room, p.ID)
	if len(room) == 0 {
		delete(r.rooms, p.room)
		p.room = ""
		return nil
	}

	remaining := make([]*Peer, 0, len(room))
	for _, member := range room {
		remaining = append(remaining, member)
	}
	p.room = ""
	return remaining
}

func (r *Registry) memberIDsLocked(code string) []string {
	room := r.rooms[code]
	ids := make([]string, 0, len(room))
	for id := range room {
		ids = append(ids, id)
	}
	return ids
}

// fanout отправляет одни и те же байты всем получателям. Отправка
// неблокирующая: переполненная очередь одного пира не задерживает других.
func (r *Registry) fanout(recipients []*Peer, msg []byte) {
	for _, member := range recipients {
		member.enqueue(msg)
	}
}
