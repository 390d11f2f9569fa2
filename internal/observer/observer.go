// Package observer broadcasts backend present-loop activity to connected
// debug clients over WebSocket, wired up by "aquamarine-shiftd serve
// --observe-addr". Writes are synchronous and have no deadline, so a slow
// client delays the broadcast until its write returns; a client is dropped
// only once a write to it fails.
package observer

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Message kinds carried on the wire, each a fixed little-endian binary
// layout rather than JSON: this path runs on every present completion, so
// allocation-free encoding matters more than readability.
const (
	msgPresent       uint8 = 1
	msgMonitorAdded  uint8 = 2
	msgMonitorRemoved uint8 = 3
	msgBufferBusy    uint8 = 4
)

// client is one connected debug observer.
type client struct {
	id   uint32
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeBinary(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, b)
}

// Registry fans backend events out to every connected debug client. The
// zero value is ready to use.
type Registry struct {
	clients sync.Map // map[uint32]*client
	nextID  atomic.Uint32
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Attach registers conn as a debug observer and returns its assigned id,
// used only for Detach.
func (r *Registry) Attach(conn *websocket.Conn) uint32 {
	id := r.nextID.Add(1)
	r.clients.Store(id, &client{id: id, conn: conn})
	return id
}

// Detach removes a previously attached client. Safe to call more than
// once.
func (r *Registry) Detach(id uint32) {
	r.clients.Delete(id)
}

// BroadcastPresent notifies observers that monitorID completed a present at
// seq with the monitor's nominal refresh interval.
func (r *Registry) BroadcastPresent(monitorID string, seq uint32, when time.Time, refresh time.Duration) {
	buf := make([]byte, 1+4+4+8+8)
	buf[0] = msgPresent
	copy(buf[1:5], monitorIDBytes(monitorID))
	binary.LittleEndian.PutUint32(buf[5:9], seq)
	binary.LittleEndian.PutUint64(buf[9:17], uint64(when.UnixMilli()))
	binary.LittleEndian.PutUint64(buf[17:25], uint64(refresh.Microseconds()))
	r.broadcast(buf)
}

// BroadcastMonitorAdded notifies observers a monitor appeared.
func (r *Registry) BroadcastMonitorAdded(monitorID string, width, height int32) {
	buf := make([]byte, 1+4+4+4)
	buf[0] = msgMonitorAdded
	copy(buf[1:5], monitorIDBytes(monitorID))
	binary.LittleEndian.PutUint32(buf[5:9], uint32(width))
	binary.LittleEndian.PutUint32(buf[9:13], uint32(height))
	r.broadcast(buf)
}

// BroadcastMonitorRemoved notifies observers a monitor disappeared.
func (r *Registry) BroadcastMonitorRemoved(monitorID string) {
	buf := make([]byte, 1+4)
	buf[0] = msgMonitorRemoved
	copy(buf[1:5], monitorIDBytes(monitorID))
	r.broadcast(buf)
}

// BroadcastBufferBusy reports the current busy-slot count for monitorID,
// for watching swapchain saturation live.
func (r *Registry) BroadcastBufferBusy(monitorID string, busy, capacity int) {
	buf := make([]byte, 1+4+1+1)
	buf[0] = msgBufferBusy
	copy(buf[1:5], monitorIDBytes(monitorID))
	buf[5] = uint8(busy)
	buf[6] = uint8(capacity)
	r.broadcast(buf)
}

// monitorIDBytes truncates/pads monitorID's first four bytes into a fixed
// slot; the wire format here favors bounded message size over carrying the
// full id, since observers only use it to tell monitors apart, not to
// display it verbatim.
func monitorIDBytes(id string) [4]byte {
	var out [4]byte
	copy(out[:], id)
	return out
}

// broadcast fans b out to every attached client, dropping (and detaching)
// any whose write fails rather than letting one bad connection block the
// rest.
func (r *Registry) broadcast(b []byte) {
	r.clients.Range(func(key, value any) bool {
		c := value.(*client)
		if err := c.writeBinary(b); err != nil {
			r.clients.Delete(key)
		}
		return true
	})
}
