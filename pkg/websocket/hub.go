package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"seekeradv/internal/metrics"
	"seekeradv/pkg/logger"
)

const (
	bookingRoomPrefix = "booking_"
	eventWelcome      = "welcome"
	queueSize         = 256
)

// Hub fans booking events out to websocket subscribers. Each booking has a
// room. While a room has subscribers its latest event is kept and replayed
// to anyone who joins later.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	latest map[string][]byte

	events     chan Message
	register   chan *Client
	unregister chan *Client
	logger     *logger.Logger
}

type Message struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		latest:     make(map[string][]byte),
		events:     make(chan Message, queueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log,
	}
}

// Run owns all subscription bookkeeping until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.subscribe(client)
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		case msg := <-h.events:
			h.publish(msg)
		}
	}
}

func BookingRoom(bookingID string) string {
	return bookingRoomPrefix + bookingID
}

// NotifyBooking queues event for the booking's subscribers. It never blocks;
// events are dropped when the queue is full.
func (h *Hub) NotifyBooking(bookingID, event string, payload interface{}) {
	msg := Message{
		Type:      event,
		RoomID:    BookingRoom(bookingID),
		Timestamp: time.Now().Unix(),
		Data:      payload,
	}
	select {
	case h.events <- msg:
	default:
		h.logger.WithBookingID(bookingID).WithField("event", event).Warn("Booking feed queue full, event dropped")
	}
}

func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) subscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[client.room]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[client.room] = room
	}
	room[client] = struct{}{}
	h.reportSubscribers()

	h.logger.WithField("user_id", client.UserID).WithField("room", client.room).Debug("Booking feed subscribed")

	welcome, _ := json.Marshal(Message{
		Type:      eventWelcome,
		RoomID:    client.room,
		Timestamp: time.Now().Unix(),
		Data:      map[string]interface{}{"message": "Connected successfully"},
	})
	if !h.deliver(client, welcome) {
		return
	}
	if last, ok := h.latest[client.room]; ok {
		h.deliver(client, last)
	}
}

func (h *Hub) publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal booking event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[msg.RoomID]
	if !ok {
		return
	}
	h.latest[msg.RoomID] = data
	for client := range room {
		h.deliver(client, data)
	}
}

// deliver must be called with mu held. A subscriber whose buffer is full is
// dropped rather than allowed to stall the hub.
func (h *Hub) deliver(client *Client, data []byte) bool {
	select {
	case client.send <- data:
		return true
	default:
		h.drop(client)
		return false
	}
}

// drop must be called with mu held.
func (h *Hub) drop(client *Client) {
	room, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.room)
		delete(h.latest, client.room)
	}
	h.reportSubscribers()

	h.logger.WithField("user_id", client.UserID).WithField("room", client.room).Debug("Booking feed unsubscribed")
}

func (h *Hub) reportSubscribers() {
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	metrics.SetFeedSubscribers(n)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for client := range room {
			h.drop(client)
		}
	}
}
