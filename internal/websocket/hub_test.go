package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient создает клиента без сетевого соединения: доставка идёт
// только через буфер send, чего достаточно для проверки хаба.
func testClient(id string) *Client {
	return &Client{
		ConnectionID: id,
		send:         make(chan []byte, 8),
	}
}

func received(t *testing.T, c *Client) [][]byte {
	t.Helper()
	var messages [][]byte
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return messages
			}
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	c1 := testClient("c1")

	hub.RegisterClient(c1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.UnregisterClient(c1)
	assert.Equal(t, 0, hub.ClientCount())

	// Повторный unregister — no-op
	hub.UnregisterClient(c1)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_RoomMessageReachesOnlyRoomMembers(t *testing.T) {
	// Клиент в комнате "abc" получает ровно одно receive_message,
	// клиент в другой комнате — ни одного
	hub := NewHub()
	inRoom := testClient("in-room")
	sender := testClient("sender")
	elsewhere := testClient("elsewhere")

	for _, c := range []*Client{inRoom, sender, elsewhere} {
		hub.RegisterClient(c)
	}
	hub.JoinRoom(inRoom, "abc")
	hub.JoinRoom(sender, "abc")
	hub.JoinRoom(elsewhere, "other")

	err := hub.BroadcastJSONToRoom("abc", Event{Type: RECEIVE_MESSAGE, Data: map[string]string{"message": "hello"}})
	require.NoError(t, err)

	got := received(t, inRoom)
	require.Len(t, got, 1)

	var event struct {
		Type string `json:"type"`
		Data struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(got[0], &event))
	assert.Equal(t, RECEIVE_MESSAGE, event.Type)
	assert.Equal(t, "hello", event.Data.Message)

	assert.Empty(t, received(t, elsewhere), "чужая комната не получает сообщений")
	assert.Len(t, received(t, sender), 1, "отправитель — участник комнаты и тоже получает ретрансляцию")
}

func TestHub_BroadcastIgnoresRooms(t *testing.T) {
	// Лайк-дельты и полный лидерборд идут всем вне зависимости от комнат
	hub := NewHub()
	inRoom := testClient("in-room")
	noRoom := testClient("no-room")
	hub.RegisterClient(inRoom)
	hub.RegisterClient(noRoom)
	hub.JoinRoom(inRoom, "abc")

	err := hub.BroadcastJSON(Event{Type: UPDATE_LIKES, Data: map[string]int{"id": 1, "likes": 3}})
	require.NoError(t, err)

	assert.Len(t, received(t, inRoom), 1)
	assert.Len(t, received(t, noRoom), 1)
}

func TestHub_DisconnectRemovesFromAllRooms(t *testing.T) {
	hub := NewHub()
	c := testClient("c1")
	hub.RegisterClient(c)
	hub.JoinRoom(c, "abc")
	hub.JoinRoom(c, "xyz")
	require.Equal(t, 2, hub.RoomCount())

	hub.UnregisterClient(c)

	// Последний участник ушёл — комнаты собраны
	assert.Equal(t, 0, hub.RoomCount())
	assert.False(t, hub.InRoom(c, "abc"))
}

func TestHub_EmptyRoomGarbageCollectedOthersKept(t *testing.T) {
	hub := NewHub()
	c1 := testClient("c1")
	c2 := testClient("c2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)
	hub.JoinRoom(c1, "abc")
	hub.JoinRoom(c2, "abc")

	hub.UnregisterClient(c1)

	assert.Equal(t, 1, hub.RoomCount(), "комната жива, пока в ней есть участники")
	assert.Equal(t, 1, hub.RoomSize("abc"))
}

func TestHub_BroadcastToUnknownRoomIsNoop(t *testing.T) {
	hub := NewHub()
	c := testClient("c1")
	hub.RegisterClient(c)

	err := hub.BroadcastJSONToRoom("ghost", Event{Type: RECEIVE_MESSAGE, Data: "x"})

	require.NoError(t, err)
	assert.Empty(t, received(t, c))
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub()
	slow := &Client{
		ConnectionID: "slow",
		send:         make(chan []byte), // без буфера: каждая доставка — переполнение
	}
	hub.RegisterClient(slow)

	for i := 0; i < maxBufferWarnings; i++ {
		hub.Broadcast([]byte(`{}`))
	}

	assert.Equal(t, 0, hub.ClientCount(), "медленный клиент отключается после повторных переполнений")
}

func TestHub_OnConnectCallback(t *testing.T) {
	hub := NewHub()
	var connected *Client
	hub.SetOnConnect(func(c *Client) { connected = c })

	c := testClient("c1")
	hub.RegisterClient(c)

	require.NotNil(t, connected)
	assert.Equal(t, "c1", connected.ConnectionID)
}
