package amqp

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidationMessageRoundTrip(t *testing.T) {
	user := uuid.New()
	msg := NewInvalidationMessage(user, []string{"accounts:" + user.String()}, "instance-a")

	body, err := msg.ToJSON()
	require.NoError(t, err)

	got, err := InvalidationMessageFromJSON(body)
	require.NoError(t, err)
	assert.Equal(t, user, got.UserID)
	assert.Equal(t, msg.Keys, got.Keys)
	assert.Equal(t, "instance-a", got.Origin)
	assert.False(t, got.Timestamp.IsZero())
}

func TestInvalidationMessageFromJSON_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{oops"},
		{name: "no keys", body: `{"user_id":"` + uuid.NewString() + `","keys":[]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := InvalidationMessageFromJSON([]byte(tc.body))
			assert.Error(t, err)
		})
	}
}
