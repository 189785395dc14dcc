// Package wsstream streams displayed geometry to websocket clients. It is a
// one-way render transport: clients receive batches and never edit the world.
package wsstream

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"

	"voxelworld/internal/mesh"
	"voxelworld/internal/render"
)

// ProtocolVersion is announced in the HELLO message.
const ProtocolVersion = 1

const (
	TypeHello  = "HELLO"
	TypeAdd    = "ADD"
	TypeRemove = "REMOVE"
)

type HelloMsg struct {
	Type     string `json:"type"`
	Protocol int    `json:"protocol"`
	Seed     int64  `json:"seed"`
}

type AddMsg struct {
	Type     string    `json:"type"`
	ID       string    `json:"id"`
	Chunk    [3]int    `json:"chunk"`
	Color    string    `json:"color"`
	Vertices []float32 `json:"vertices"`
}

type RemoveMsg struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Options tunes a Hub.
type Options struct {
	Seed         int64
	Compress     bool // zstd-compressed binary frames instead of text frames
	ClientBuffer int  // queued messages per client before dropping
	Logger       *log.Logger
}

type client struct {
	id      uint64
	out     chan []byte
	dropped int
	lagged  bool // evicted because its queue filled; set before out is closed
}

// Hub is a render sink that mirrors the scene to every connected client. A
// client that falls behind is disconnected instead of stalling the caller;
// it can reconnect for a fresh snapshot.
type Hub struct {
	opts     Options
	log      *log.Logger
	upgrader websocket.Upgrader
	enc      *zstd.Encoder

	mu      sync.Mutex
	scene   *render.Scene
	clients map[*client]struct{}
	nextID  uint64
	closed  bool
}

func NewHub(opts Options) (*Hub, error) {
	if opts.ClientBuffer <= 0 {
		opts.ClientBuffer = 256
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	h := &Hub{
		opts:  opts,
		log:   logger,
		scene: render.NewScene(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: make(map[*client]struct{}),
	}
	if opts.Compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		h.enc = enc
	}
	return h, nil
}

// Add records the batch and broadcasts an ADD message.
func (h *Hub) Add(b *mesh.Batch) {
	if b == nil {
		return
	}
	payload, err := h.encode(addMessage(b))
	if err != nil {
		h.log.Printf("wsstream: encode add %s: %v", b.ID, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scene.Add(b)
	h.broadcastLocked(payload)
}

// Remove forgets the batch and broadcasts a REMOVE message.
func (h *Hub) Remove(b *mesh.Batch) {
	if b == nil {
		return
	}
	payload, err := h.encode(RemoveMsg{Type: TypeRemove, ID: b.ID.String()})
	if err != nil {
		h.log.Printf("wsstream: encode remove %s: %v", b.ID, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scene.Remove(b)
	h.broadcastLocked(payload)
}

func addMessage(b *mesh.Batch) AddMsg {
	return AddMsg{
		Type:     TypeAdd,
		ID:       b.ID.String(),
		Chunk:    [3]int{b.Chunk.X, b.Chunk.Y, b.Chunk.Z},
		Color:    b.Color.Hex(),
		Vertices: b.Vertices(),
	}
}

func (h *Hub) encode(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if h.enc != nil {
		return h.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	}
	return data, nil
}

func (h *Hub) broadcastLocked(payload []byte) {
	for c := range h.clients {
		select {
		case c.out <- payload:
		default:
			// A missed ADD or REMOVE would leave the client's scene diverged
			// for good.
			c.dropped++
			c.lagged = true
			delete(h.clients, c)
			close(c.out)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register queues HELLO plus the current scene for a new client and adds it
// to the broadcast set in one step, so no update is missed or repeated.
func (h *Hub) register() (*client, error) {
	hello, err := h.encode(HelloMsg{Type: TypeHello, Protocol: ProtocolVersion, Seed: h.opts.Seed})
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, errors.New("hub closed")
	}
	batches := h.scene.Batches()
	c := &client{out: make(chan []byte, h.opts.ClientBuffer+len(batches)+1)}
	h.nextID++
	c.id = h.nextID
	c.out <- hello
	for _, b := range batches {
		payload, err := h.encode(addMessage(b))
		if err != nil {
			return nil, err
		}
		c.out <- payload
	}
	h.clients[c] = struct{}{}
	return c, nil
}

func (h *Hub) unregister(c *client) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.out)
	}
	return c.dropped
}

func (h *Hub) frameType() int {
	if h.enc != nil {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}

// Handler upgrades the request and streams messages until either side
// closes.
func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c, err := h.register()
		if err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()), time.Now().Add(time.Second))
			return
		}
		h.log.Printf("wsstream: client %d connected from %s", c.id, r.RemoteAddr)

		writeErr := make(chan error, 1)
		go func() {
			frame := h.frameType()
			for b := range c.out {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(frame, b); err != nil {
					writeErr <- err
					return
				}
			}
			closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
			if c.lagged {
				closeMsg = websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "client too slow")
			}
			_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			writeErr <- nil
		}()

		// Reads only service control frames; client payloads are ignored.
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		select {
		case <-readDone:
		case <-writeErr:
		}
		dropped := h.unregister(c)
		if dropped > 0 {
			h.log.Printf("wsstream: client %d disconnected after falling behind", c.id)
		} else {
			h.log.Printf("wsstream: client %d disconnected", c.id)
		}
	}
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.out)
	}
}
