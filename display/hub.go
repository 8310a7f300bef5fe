package display

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	mandel "github.com/marben/mandel_zoom"
)

// EscapeMessage is the text message a viewer sends to stop the zoom.
const EscapeMessage = "escape"

const writeTimeout = 5 * time.Second

// HubStats is a snapshot of viewer activity.
type HubStats struct {
	Viewers  int    // currently connected
	Accepted uint64 // connections accepted over the hub lifetime
	Frames   uint64 // frames published
	Drops    uint64 // frames overwritten before a viewer sent them
}

// Hub is a display that streams frames to websocket viewers.
//
// Every viewer has a single-slot mailbox: a slow viewer skips frames instead
// of holding up the render pipeline.
type Hub struct {
	opts *websocket.AcceptOptions

	mu      sync.Mutex
	viewers map[uuid.UUID]*viewer
	closed  bool
	wg      sync.WaitGroup

	escape   atomic.Bool
	seq      atomic.Uint64
	accepted atomic.Uint64
	drops    atomic.Uint64
}

var _ mandel.Display = (*Hub)(nil)

// NewHub returns an open hub with no viewers.
// originPatterns is passed to websocket.Accept; nil only allows same-origin viewers.
func NewHub(originPatterns ...string) *Hub {
	return &Hub{
		opts:    &websocket.AcceptOptions{OriginPatterns: originPatterns},
		viewers: make(map[uuid.UUID]*viewer),
	}
}

// viewer is one connected websocket with its mailbox.
type viewer struct {
	id   uuid.UUID
	conn *websocket.Conn

	mu     sync.Mutex
	cond   *sync.Cond
	msg    []byte // nil = nothing pending
	closed bool
}

func newViewer(c *websocket.Conn) *viewer {
	v := &viewer{id: uuid.New(), conn: c}
	v.cond = sync.NewCond(&v.mu)
	return v
}

// publish replaces the pending message. It reports whether an unsent one was dropped.
func (v *viewer) publish(msg []byte) (dropped bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false
	}
	dropped = v.msg != nil
	v.msg = msg
	v.cond.Signal()
	return dropped
}

// next blocks for a message. It returns nil once the viewer is closed.
func (v *viewer) next() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	for v.msg == nil && !v.closed {
		v.cond.Wait()
	}
	if v.closed {
		return nil
	}
	msg := v.msg
	v.msg = nil
	return msg
}

func (v *viewer) close() {
	v.mu.Lock()
	v.closed = true
	v.cond.Signal()
	v.mu.Unlock()
}

// ServeHTTP upgrades the request to a websocket and streams frames to it
// until the viewer disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := mandel.Logger()

	c, err := websocket.Accept(w, r, h.opts)
	if err != nil {
		log.Warn("websocket accept failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	v := newViewer(c)
	if !h.add(v) {
		_ = c.Close(websocket.StatusGoingAway, "display closed")
		return
	}
	defer h.remove(v)

	log.Info("viewer connected", "viewer_id", v.id.String(), "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.readLoop(ctx, v)

	for {
		msg := v.next()
		if msg == nil {
			break
		}
		wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
		err := c.Write(wctx, websocket.MessageBinary, msg)
		wcancel()
		if err != nil {
			log.Info("viewer write failed", "viewer_id", v.id.String(), "error", err)
			v.close()
			break
		}
	}

	_ = c.Close(websocket.StatusNormalClosure, "")
	log.Info("viewer disconnected", "viewer_id", v.id.String())
}

// readLoop watches for control messages. The connection must be read for
// pings and close frames to be processed.
func (h *Hub) readLoop(ctx context.Context, v *viewer) {
	defer v.close()

	for {
		typ, data, err := v.conn.Read(ctx)
		if err != nil {
			return
		}
		if typ == websocket.MessageText && strings.EqualFold(strings.TrimSpace(string(data)), EscapeMessage) {
			mandel.Logger().Info("viewer requested close", "viewer_id", v.id.String())
			h.escape.Store(true)
		}
	}
}

func (h *Hub) add(v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.viewers[v.id] = v
	h.wg.Add(1)
	h.accepted.Add(1)
	return true
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	delete(h.viewers, v.id)
	h.mu.Unlock()
	h.wg.Done()
}

// Update encodes the frame once and hands it to every viewer without blocking.
func (h *Hub) Update(pixels []uint32, width, height int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	msg, err := EncodeFrame(WireFrame{Seq: h.seq.Load(), Width: width, Height: height, Pixels: pixels})
	if err != nil {
		return err
	}
	h.seq.Add(1)

	for _, v := range h.viewers {
		if v.publish(msg) {
			h.drops.Add(1)
		}
	}
	return nil
}

func (h *Hub) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

// CloseRequested reports whether any viewer sent EscapeMessage.
func (h *Hub) CloseRequested() bool {
	return h.escape.Load()
}

// Stats returns a snapshot of viewer activity.
func (h *Hub) Stats() HubStats {
	h.mu.Lock()
	n := len(h.viewers)
	h.mu.Unlock()

	return HubStats{
		Viewers:  n,
		Accepted: h.accepted.Load(),
		Frames:   h.seq.Load(),
		Drops:    h.drops.Load(),
	}
}

// Close disconnects all viewers and waits for their handlers to return.
// Further updates fail with ErrClosed.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for _, v := range h.viewers {
		v.close()
	}
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}
