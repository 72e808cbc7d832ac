package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckOutboxMode(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		dispatcher string
		direct     string
		wantErr    bool
	}{
		{name: "defaults without topic", topic: "", dispatcher: "", direct: ""},
		{name: "defaults with topic", topic: "freight-events", dispatcher: "", direct: ""},
		{name: "direct forced off", topic: "freight-events", dispatcher: "true", direct: "false"},
		{name: "both on", topic: "freight-events", dispatcher: "true", direct: "true", wantErr: true},
		{name: "direct on beside default dispatcher", topic: "freight-events", dispatcher: "", direct: "true", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PUBSUB_TOPIC", tt.topic)
			t.Setenv("OUTBOX_DISPATCHER_ENABLED", tt.dispatcher)
			t.Setenv("OUTBOX_DIRECT_PROCESSING", tt.direct)

			err := CheckOutboxMode()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrOutboxModeConflict)
				return
			}
			assert.NoError(t, err)
		})
	}
}
