package httpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomKey(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		id     string
		me     string
		want   string
		wantOK bool
	}{
		{"global", "global", "", "u1", "chat:global", true},
		{"zone", "zone", "town", "u1", "chat:zone:town", true},
		{"zone without id", "zone", "", "u1", "", false},
		{"dm sorted", "dm", "bob", "alice", "dm:alice-bob", true},
		{"dm reversed sorts the same", "dm", "alice", "bob", "dm:alice-bob", true},
		{"dm without peer", "dm", "", "alice", "", false},
		{"unknown type", "group", "x", "u1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := roomKey(tt.typ, tt.id, tt.me)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
