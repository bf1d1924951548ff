package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/talentbridge-backend/internal/domain/repository"
	"github.com/ignatzorin/talentbridge-backend/internal/logger"
	"github.com/ignatzorin/talentbridge-backend/internal/metrics"
)

// Hub управляет WebSocket клиентами и доставляет им уведомления о сделках.
// Все изменения карт клиентов происходят в горутине Run.
type Hub struct {
	users      map[uuid.UUID]map[*Client]struct{}
	companies  map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
}

type message struct {
	userIDs    []uuid.UUID
	companyIDs []uuid.UUID
	payload    []byte
}

// Envelope - формат сообщения для клиента: "type" содержит имя события, "data" полезную нагрузку.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewHub создаёт новый хаб.
func NewHub() *Hub {
	return &Hub{
		users:      make(map[uuid.UUID]map[*Client]struct{}),
		companies:  make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 64),
		done:       make(chan struct{}),
	}
}

// Run запускает главный цикл хаба до отмены ctx.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.send(msg)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister удаляет клиента.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify реализует repository.Notifier: сообщение получают пользователи и все
// подключённые сотрудники компаний из уведомления.
func (h *Hub) Notify(ctx context.Context, n repository.Notification) error {
	raw, err := json.Marshal(Envelope{Type: n.Event, Data: n.Data})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}

	msg := message{userIDs: n.UserIDs, companyIDs: n.CompanyIDs, payload: raw}
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return fmt.Errorf("ws: хаб остановлен")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) addClient(client *Client) {
	addTo(h.users, client.actor.UserID, client)
	if client.actor.CompanyID != uuid.Nil {
		addTo(h.companies, client.actor.CompanyID, client)
	}
	metrics.ActiveWebSocketClients.Inc()
}

func (h *Hub) removeClient(client *Client) {
	if !removeFrom(h.users, client.actor.UserID, client) {
		return
	}
	removeFrom(h.companies, client.actor.CompanyID, client)
	close(client.send)
	metrics.ActiveWebSocketClients.Dec()
}

func (h *Hub) send(msg message) {
	recipients := make(map[*Client]struct{})
	for _, id := range msg.userIDs {
		for c := range h.users[id] {
			recipients[c] = struct{}{}
		}
	}
	for _, id := range msg.companyIDs {
		for c := range h.companies[id] {
			recipients[c] = struct{}{}
		}
	}

	for client := range recipients {
		select {
		case client.send <- msg.payload:
		default:
			// медленный клиент отключается
			logger.L().WithFields(logrus.Fields{
				"user_id": client.actor.UserID,
			}).Warn("ws: буфер клиента переполнен, отключаем")
			h.removeClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	for _, clients := range h.users {
		for client := range clients {
			h.removeClient(client)
		}
	}
}

func addTo(index map[uuid.UUID]map[*Client]struct{}, key uuid.UUID, client *Client) {
	if _, ok := index[key]; !ok {
		index[key] = make(map[*Client]struct{})
	}
	index[key][client] = struct{}{}
}

func removeFrom(index map[uuid.UUID]map[*Client]struct{}, key uuid.UUID, client *Client) bool {
	clients, ok := index[key]
	if !ok {
		return false
	}
	if _, ok := clients[client]; !ok {
		return false
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(index, key)
	}
	return true
}
