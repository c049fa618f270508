package httpx

import (
	"net/http"
	"strconv"

	"github.com/RaghavVerma19/ride-share-backend/internal/store"
	"github.com/RaghavVerma19/ride-share-backend/internal/stream"
	"github.com/RaghavVerma19/ride-share-backend/pkg/auth"
)

// ChatAPI serves message history straight off the stream log, so the
// read path sees entries the sync worker has not drained yet.
type ChatAPI struct {
	DB      *store.Postgres
	Streams stream.Log
}

type historyMsg struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName,omitempty"`
	Text       string `json:"text"`
	Ts         int64  `json:"ts"`
}

type historyResp struct {
	Messages   []historyMsg `json:"messages"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// History returns the most recent messages of a room, newest first,
// with a cursor for the next page.
func (a *ChatAPI) History(w http.ResponseWriter, r *http.Request) {
	me := auth.User(r.Context()).UserID
	room, ok := roomKey(r.PathValue("type"), r.PathValue("id"), me)
	if !ok {
		http.Error(w, "invalid chat type", http.StatusBadRequest)
		return
	}

	cursor := r.URL.Query().Get("cursor")
	count := queryInt(r, "count", 20)

	entries, err := a.Streams.RevRange(r.Context(), room, cursor, count)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	msgs := make([]historyMsg, 0, len(entries))
	var missing []string
	for _, e := range entries {
		ts, _ := strconv.ParseInt(e.Fields["ts"], 10, 64)
		m := historyMsg{
			ID:         e.ID,
			SenderID:   e.Fields["senderId"],
			SenderName: e.Fields["senderName"],
			Text:       e.Fields["text"],
			Ts:         ts,
		}
		if m.SenderName == "" && m.SenderID != "" {
			missing = append(missing, m.SenderID)
		}
		msgs = append(msgs, m)
	}

	// Backfill names for old entries appended before names were stored
	if len(missing) > 0 {
		if names, err := a.DB.UserNames(r.Context(), missing); err == nil {
			for i := range msgs {
				if msgs[i].SenderName == "" {
					msgs[i].SenderName = names[msgs[i].SenderID]
				}
			}
		}
	}

	resp := historyResp{Messages: msgs}
	if len(msgs) > 0 {
		resp.NextCursor = msgs[len(msgs)-1].ID
	}
	writeJSON(w, resp)
}

// roomKey maps the URL {type}/{id} pair onto a stream room key. For
// DMs the id is the peer; the pair is completed with the caller.
func roomKey(typ, id, me string) (string, bool) {
	switch typ {
	case "global":
		return stream.GlobalRoom, true
	case "zone":
		if id == "" {
			return "", false
		}
		return stream.ZoneRoom(id), true
	case "dm":
		if id == "" || me == "" {
			return "", false
		}
		return stream.DMRoom(me, id), true
	}
	return "", false
}
