package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_DispatchesToRegisteredHandler(t *testing.T) {
	hub := NewHub()
	manager := NewManager(hub)
	client := testClient("c1")
	hub.RegisterClient(client)

	var gotRoom string
	manager.RegisterHandler(JOIN_ROOM, func(data json.RawMessage, c *Client) error {
		var room string
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}
		gotRoom = room
		hub.JoinRoom(c, room)
		return nil
	})

	err := manager.HandleMessage([]byte(`{"type":"join_room","data":"abc"}`), client)

	require.NoError(t, err)
	assert.Equal(t, "abc", gotRoom)
	assert.True(t, hub.InRoom(client, "abc"))
}

func TestManager_UnknownTypeKeepsConnection(t *testing.T) {
	hub := NewHub()
	manager := NewManager(hub)
	client := testClient("c1")
	hub.RegisterClient(client)

	err := manager.HandleMessage([]byte(`{"type":"nope","data":null}`), client)

	// Неизвестный тип не фатален, но клиент получает server:error
	require.NoError(t, err)
	messages := received(t, client)
	require.Len(t, messages, 1)

	var event Event
	require.NoError(t, json.Unmarshal(messages[0], &event))
	assert.Equal(t, SERVER_ERROR, event.Type)
}

func TestManager_InvalidJSONClosesConnection(t *testing.T) {
	hub := NewHub()
	manager := NewManager(hub)
	client := testClient("c1")
	hub.RegisterClient(client)

	err := manager.HandleMessage([]byte(`not json`), client)

	assert.Error(t, err, "мусор на входе — фатально для соединения")
}

func TestManager_BroadcastEventWrapsInEnvelope(t *testing.T) {
	hub := NewHub()
	manager := NewManager(hub)
	client := testClient("c1")
	hub.RegisterClient(client)

	err := manager.BroadcastEvent(UPDATE_LIKES, map[string]interface{}{"id": 7, "likes": 2})
	require.NoError(t, err)

	messages := received(t, client)
	require.Len(t, messages, 1)
	assert.JSONEq(t, `{"type":"update_likes","data":{"id":7,"likes":2}}`, string(messages[0]))
}
