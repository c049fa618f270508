package ws

import (
	"sync"

	"log/slog"
)

// Hub owns all live connection state: the user -> conn registry and
// the zone membership index. One lock guards both so registry and
// zone mutations stay atomic relative to each other; zone sets never
// hold a user without a live conn.
type Hub struct {
	log *slog.Logger

	mu    sync.Mutex
	conns map[string]*Conn               // by user id
	zones map[string]map[string]struct{} // zone id -> member user ids
}

// NewHub sets up an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		log:   logger,
		conns: map[string]*Conn{},
		zones: map[string]map[string]struct{}{},
	}
}

// Register installs c as the live connection for its user. A previous
// connection for the same user is displaced: it is returned along with
// the zone it occupied so the caller can announce the departure, and
// its socket is closed.
func (h *Hub) Register(c *Conn) (old *Conn, oldZone string) {
	h.mu.Lock()
	old = h.conns[c.UserID]
	if old != nil {
		oldZone = old.zoneID
		h.dropFromZone(oldZone, c.UserID)
	}
	h.conns[c.UserID] = c
	h.mu.Unlock()

	if old != nil {
		h.log.Debug("hub.replace", "user", c.UserID, "zone", oldZone)
		old.closeReplaced()
	}
	return old, oldZone
}

// Remove detaches c if it is still the registered connection for its
// user (a reconnect may have displaced it already). It reports the
// zone left, if any. Safe to call repeatedly.
func (h *Hub) Remove(c *Conn) (zoneID string, removed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[c.UserID] != c {
		return "", false
	}
	delete(h.conns, c.UserID)
	zoneID = c.zoneID
	c.zoneID = ""
	h.dropFromZone(zoneID, c.UserID)
	return zoneID, true
}

// Get returns the live connection for a user, or nil
func (h *Hub) Get(userID string) *Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conns[userID]
}

// JoinZone moves a user into a zone, leaving the previous one in the
// same critical section. It reports the previous zone and whether this
// was a re-join of the current zone (so the caller can skip the
// leave/join announcements). ok is false when the user has no live
// connection.
func (h *Hub) JoinZone(userID, zoneID string, x, y float64) (prev string, rejoined, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := h.conns[userID]
	if c == nil {
		return "", false, false
	}

	prev = c.zoneID
	rejoined = prev == zoneID
	if !rejoined {
		h.dropFromZone(prev, userID)
		set := h.zones[zoneID]
		if set == nil {
			set = map[string]struct{}{}
			h.zones[zoneID] = set
		}
		set[userID] = struct{}{}
	}
	c.zoneID = zoneID
	c.x, c.y = x, y
	return prev, rejoined, true
}

// SetMovement updates position/animation and returns the user's
// current zone ("" when zoneless, making the move a no-op upstream).
func (h *Hub) SetMovement(userID string, x, y float64, anim string) (zoneID string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := h.conns[userID]
	if c == nil {
		return "", false
	}
	c.x, c.y = x, y
	c.anim = anim
	return c.zoneID, true
}

// ZoneOf returns the user's current zone, "" if none
func (h *Hub) ZoneOf(userID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c := h.conns[userID]; c != nil {
		return c.zoneID
	}
	return ""
}

// ZoneSnapshot captures the presence of every zone member except
// exclude, for the zoneState frame sent to a joiner.
func (h *Hub) ZoneSnapshot(zoneID, exclude string) []PlayerState {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := []PlayerState{}
	for uid := range h.zones[zoneID] {
		if uid == exclude {
			continue
		}
		c := h.conns[uid]
		if c == nil {
			continue // membership is reconciled against live conns
		}
		out = append(out, PlayerState{
			UserID:   c.UserID,
			UserName: c.UserName,
			X:        c.x,
			Y:        c.y,
			Anim:     c.anim,
		})
	}
	return out
}

// ToAll fans a frame out to every live connection
func (h *Hub) ToAll(payload []byte) {
	for _, c := range h.snapshotAll() {
		c.TrySend(payload)
	}
}

// ToZone fans a frame out to a zone's members, skipping exclude
func (h *Hub) ToZone(zoneID string, payload []byte, exclude string) {
	for _, c := range h.snapshotZone(zoneID, exclude) {
		c.TrySend(payload)
	}
}

// ToUser delivers to a single user if they are online
func (h *Hub) ToUser(userID string, payload []byte) bool {
	c := h.Get(userID)
	if c == nil {
		return false
	}
	c.TrySend(payload)
	return true
}

// dropFromZone removes a member and prunes empty sets. Caller holds mu.
func (h *Hub) dropFromZone(zoneID, userID string) {
	if zoneID == "" {
		return
	}
	set := h.zones[zoneID]
	if set == nil {
		return
	}
	delete(set, userID)
	if len(set) == 0 {
		delete(h.zones, zoneID)
	}
}

// snapshotAll copies the conn list so sends happen outside the lock
func (h *Hub) snapshotAll() []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) snapshotZone(zoneID, exclude string) []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.zones[zoneID]
	out := make([]*Conn, 0, len(set))
	for uid := range set {
		if uid == exclude {
			continue
		}
		if c := h.conns[uid]; c != nil {
			out = append(out, c)
		}
	}
	return out
}
