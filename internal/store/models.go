package store

import "time"

type User struct {
	ID        string
	FullName  string
	Email     string
	GoogleID  string
	AvatarURL string
	Bio       string
	CreatedAt time.Time
}

type Ride struct {
	ID            string
	DriverID      string
	OriginAddr    string
	OriginLat     float64
	OriginLng     float64
	DestAddr      string
	DestLat       float64
	DestLng       float64
	DepartureTime time.Time
	Status        string // scheduled | in-progress | completed | cancelled
	Fare          float64
	SeatCapacity  int
	Vehicle       string
	CreatedAt     time.Time
}

// Message is the durable chat record drained from the stream log.
// EntryID is the originating stream entry id and doubles as the dedup
// key for at-least-once re-delivery.
type Message struct {
	EntryID     string
	Room        string // chat:global | chat:zone:<id> | dm:<a>-<b>
	SenderID    string
	SenderName  string
	RecipientID string // set only for dm
	Text        string
	Ts          time.Time
}
