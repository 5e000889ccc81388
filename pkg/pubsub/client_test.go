package pubsub

import (
	"context"
	"testing"

	"github.com/angelmondragon/cartsync-backend/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestTopicResourceName(t *testing.T) {
	assert.Equal(t, "projects/p1/topics/orders", topicResourceName("p1", " orders "))
	assert.Equal(t, "projects/other/topics/orders", topicResourceName("p1", "projects/other/topics/orders"))
	assert.Empty(t, topicResourceName("p1", ""))
	assert.Empty(t, topicResourceName("", "orders"))
}

func TestTopicNames(t *testing.T) {
	assert.Equal(t, []string{"orders"}, topicNames(config.PubSubConfig{OrdersTopic: "orders"}))
	assert.Empty(t, topicNames(config.PubSubConfig{OrdersTopic: "  "}))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "orders"}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("orders"))
	assert.Error(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestClientOptions(t *testing.T) {
	assert.Len(t, clientOptions(config.GCPConfig{}, config.PubSubConfig{}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsFile: "/secrets/sa.json"}, config.PubSubConfig{}), 2)
	assert.Len(t, clientOptions(
		config.GCPConfig{CredentialsFile: "/secrets/sa.json"},
		config.PubSubConfig{EmulatorHost: "localhost:8085"},
	), 4, "emulator ignores credentials")
}
