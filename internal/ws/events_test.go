package ws

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Inbound
		wantErr string
	}{
		{
			name: "joinZone",
			raw:  `{"type":"joinZone","zoneId":"town","x":10,"y":20}`,
			want: JoinZone{ZoneID: "town", X: 10, Y: 20},
		},
		{
			name: "playerMove",
			raw:  `{"type":"playerMove","x":1,"y":2,"anim":"walk-right"}`,
			want: PlayerMove{X: 1, Y: 2, Anim: "walk-right"},
		},
		{
			name: "zoneChat long form",
			raw:  `{"type":"zoneChat","text":"hi"}`,
			want: ZoneChat{Text: "hi"},
		},
		{
			name: "zoneChat short alias",
			raw:  `{"type":"zone","text":"hi"}`,
			want: ZoneChat{Text: "hi"},
		},
		{
			name: "globalChat long form",
			raw:  `{"type":"globalChat","text":"hello all"}`,
			want: GlobalChat{Text: "hello all"},
		},
		{
			name: "globalChat short alias",
			raw:  `{"type":"global","text":"hello all"}`,
			want: GlobalChat{Text: "hello all"},
		},
		{
			name: "dm",
			raw:  `{"type":"dm","recipientId":"u2","text":"psst"}`,
			want: DirectMessage{RecipientID: "u2", Text: "psst"},
		},
		{
			name:    "not json",
			raw:     `{not json`,
			wantErr: "invalid message format",
		},
		{
			name:    "unknown type",
			raw:     `{"type":"teleport"}`,
			wantErr: "unknown message type",
		},
		{
			name:    "joinZone without zone",
			raw:     `{"type":"joinZone","x":1,"y":2}`,
			wantErr: "zoneId required",
		},
		{
			name:    "dm without recipient",
			raw:     `{"type":"dm","text":"psst"}`,
			wantErr: "recipientId required",
		},
		{
			name:    "empty chat text",
			raw:     `{"type":"globalChat","text":""}`,
			wantErr: "text required",
		},
		{
			name:    "oversized chat text",
			raw:     `{"type":"zoneChat","text":"` + strings.Repeat("a", maxChatLen+1) + `"}`,
			wantErr: "text too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound([]byte(tt.raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
