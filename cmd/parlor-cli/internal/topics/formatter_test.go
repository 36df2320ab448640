package topics

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/parlor/internal/topicmgr"
	"github.com/nfrund/parlor/internal/websocket"
)

func TestDisplayTopicsTable(t *testing.T) {
	var buf bytes.Buffer
	DisplayTopicsTable(&buf, websocket.Topics())

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "ws.client.inbound")
	assert.Contains(t, out, "ws.broadcast")
	assert.Contains(t, out, "framework")
}

func TestDisplayTopicsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayTopicsJSON(&buf, websocket.Topics()))

	var decoded struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, len(websocket.Topics()), decoded.Count)
	assert.Equal(t, websocket.TopicClientInbound.Name(), decoded.Topics[0].Name)
}

func TestDisplayTopicDetails(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayTopicDetails(&buf, websocket.TopicClientReady, "table"))
	assert.Contains(t, buf.String(), "Name:        ws.client.ready")
	assert.Contains(t, buf.String(), "Metadata:")

	buf.Reset()
	require.NoError(t, DisplayTopicDetails(&buf, websocket.TopicClientReady, "json"))
	var d TopicDisplay
	require.NoError(t, json.Unmarshal(buf.Bytes(), &d))
	assert.Equal(t, "ws.client.ready", d.Name)

	assert.Error(t, DisplayTopicDetails(&buf, websocket.TopicClientReady, "yaml"))
}

func TestDisplayValidationResult(t *testing.T) {
	var buf bytes.Buffer
	DisplayValidationResult(&buf, websocket.TopicBroadcast, nil, nil)
	assert.Contains(t, buf.String(), "✅ Topic 'ws.broadcast' is valid")
	assert.Contains(t, buf.String(), "Module: (framework)")

	buf.Reset()
	DisplayValidationResult(&buf, nil, errors.New("bad name"), nil)
	assert.Contains(t, buf.String(), "name validation failed: bad name")

	buf.Reset()
	DisplayValidationResult(&buf, nil, nil, errors.New("missing"))
	assert.Contains(t, buf.String(), "Topic validation failed: missing")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	assert.Equal(t, "...", truncateString("abcdef", 2))
}

func TestInitialize(t *testing.T) {
	manager, err := Initialize()
	require.NoError(t, err)

	for _, topic := range websocket.Topics() {
		_, ok := manager.Get(topic.Name())
		assert.True(t, ok, topic.Name())
	}
	assert.Len(t, manager.ListByScope(topicmgr.ScopeFramework), len(websocket.Topics()))
}
