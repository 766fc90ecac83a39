package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Peer - одно живое WebSocket-подключение. ID выдается relay на время
// жизни соединения и нигде не персистится.
type Peer struct {
	ID string

	registry *Registry
	conn     *websocket.Conn
	send     chan []byte

	done     chan struct{}
	doneOnce sync.Once

	// room защищен мьютексом registry
	room string
}

// NewPeer регистрирует подключение и выдает транзитный id
func (r *Registry) NewPeer(conn *websocket.Conn) *Peer {
	return &Peer{
		ID:       uuid.NewString(),
		registry: r,
		conn:     conn,
		send:     make(chan []byte, r.cfg.SendBufferSize),
		done:     make(chan struct{}),
	}
}

// Run запускает цикл записи и блокируется в цикле чтения до разрыва
// соединения. Закрытие сокета - единственный сигнал отмены.
func (p *Peer) Run() {
	go p.writePump()
	p.readPump()
}

// enqueue ставит сообщение в очередь отправки без блокировки.
// Переполненный буфер означает застрявшего пира - сообщение отбрасывается,
// чтобы не задерживать рассылку остальным.
func (p *Peer) enqueue(msg []byte) {
	select {
	case <-p.done:
		return
	default:
	}

	select {
	case p.send <- msg:
	default:
		p.registry.log.Warn("Peer send buffer full, dropping message", "peer_id", p.ID)
	}
}

// shutdown останавливает writePump. Вызывается из Registry.Leave.
func (p *Peer) shutdown() {
	p.doneOnce.Do(func() {
		close(p.done)
	})
}

func (p *Peer) readPump() {
	defer func() {
		p.registry.Leave(p)
		p.conn.Close()
	}()

	cfg := p.registry.cfg
	p.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	p.conn.SetPongHandler(func(string) error {
		_ = p.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
		return nil
	})

	for {
		messageType, raw, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				p.registry.log.Warn("Unexpected websocket close", "peer_id", p.ID, "error", err)
			}
			return
		}

		// только текстовые JSON-кадры, остальное игнорируется
		if messageType != websocket.TextMessage {
			continue
		}

		p.registry.Dispatch(p, raw)
	}
}

func (p *Peer) writePump() {
	cfg := p.registry.cfg
	pingPeriod := cfg.PongTimeout * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case <-p.done:
			_ = p.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				p.registry.log.Debug("Failed to write to peer", "peer_id", p.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
