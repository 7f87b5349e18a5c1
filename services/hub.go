package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"knowme/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// DashboardHub pushes attempt-recorded events to creators who keep the
// results dashboard open. Connections are keyed by quiz ID; a quiz with
// no open dashboards costs nothing. A nil hub is valid and drops all
// notifications, which degrades the dashboard to plain polling.
type DashboardHub struct {
	clients    map[*DashboardClient]bool
	register   chan *DashboardClient
	unregister chan *DashboardClient
	notify     chan attemptEvent
	mutex      sync.RWMutex
}

type DashboardClient struct {
	hub    *DashboardHub
	socket *websocket.Conn
	send   chan []byte
	quizID uint
}

type attemptEvent struct {
	quizID uint
	data   []byte
}

type dashboardMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewDashboardHub() *DashboardHub {
	return &DashboardHub{
		clients:    make(map[*DashboardClient]bool),
		register:   make(chan *DashboardClient),
		unregister: make(chan *DashboardClient),
		notify:     make(chan attemptEvent, 64),
	}
}

func (h *DashboardHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Dashboard connected for quiz %d (%d open)", client.quizID, len(h.clients))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			log.Printf("Dashboard disconnected for quiz %d (%d open)", client.quizID, len(h.clients))

		case event := <-h.notify:
			h.mutex.Lock()
			for client := range h.clients {
				if client.quizID != event.quizID {
					continue
				}
				select {
				case client.send <- event.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// NotifyAttempt broadcasts a freshly recorded attempt to every open
// dashboard for its quiz.
func (h *DashboardHub) NotifyAttempt(quizID uint, attempt *models.QuizAttempt) {
	if h == nil {
		return
	}

	data, err := json.Marshal(dashboardMessage{
		Type:    "attempt_recorded",
		Payload: attempt,
	})
	if err != nil {
		log.Printf("Error marshaling attempt event: %v", err)
		return
	}

	h.notify <- attemptEvent{quizID: quizID, data: data}
}

// RegisterClient attaches an upgraded connection to the hub and starts
// its pumps. It owns the connection from here on.
func (h *DashboardHub) RegisterClient(conn *websocket.Conn, quizID uint) {
	client := &DashboardClient{
		hub:    h,
		socket: conn,
		send:   make(chan []byte, 16),
		quizID: quizID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *DashboardClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	c.socket.SetReadLimit(512)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Dashboards are read-only; inbound frames are drained until the
	// peer goes away.
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Dashboard socket error for quiz %d: %v", c.quizID, err)
			}
			return
		}
	}
}

func (c *DashboardClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
