package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"

	"github.com/songmasher/api/internal/model"
)

// Client is one subscriber watching a render job. Send is never closed;
// done signals teardown so late sends cannot hit a closed channel.
type Client struct {
	JobID string
	Conn  *websocket.Conn
	Send  chan []byte
	done  chan struct{}
}

// Hub fans render job updates out to websocket subscribers grouped by
// job ID. Updates flow one way; subscribers never mutate job state.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu  sync.RWMutex
	log *zap.Logger
}

type broadcastMessage struct {
	jobID   string
	message []byte
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		log:        log,
	}
}

// Run is the hub's main loop; call it once in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.JobID] == nil {
				h.clients[client.JobID] = make(map[*Client]bool)
			}
			h.clients[client.JobID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.JobID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.done)
					if len(clients) == 0 {
						delete(h.clients, client.JobID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			if clients, ok := h.clients[msg.jobID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.message:
					default:
						close(client.done)
						delete(clients, client)
					}
				}
				if len(clients) == 0 {
					delete(h.clients, msg.jobID)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(client *Client)   { h.register <- client }
func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) send(jobID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		if h.log != nil {
			h.log.Error("marshaling ws message", zap.Error(err))
		}
		return
	}
	h.broadcast <- &broadcastMessage{jobID: jobID, message: data}
}

// NotifyProgress implements service.ProgressNotifier.
func (h *Hub) NotifyProgress(jobID string, stage model.JobStage, progress float64) {
	h.send(jobID, model.WSProgressMessage{
		Type:     model.WSMessageTypeProgress,
		JobID:    jobID,
		Stage:    stage,
		Progress: progress,
	})
}

// NotifyComplete implements service.ProgressNotifier.
func (h *Hub) NotifyComplete(jobID string, refs model.ResultRefs) {
	h.send(jobID, model.WSCompleteMessage{
		Type:   model.WSMessageTypeComplete,
		JobID:  jobID,
		Result: refs,
	})
}

// NotifyError implements service.ProgressNotifier.
func (h *Hub) NotifyError(jobID string, detail string) {
	h.send(jobID, model.WSErrorMessage{
		Type:  model.WSMessageTypeError,
		JobID: jobID,
		Error: model.WSError{Code: detail, Message: "render failed"},
	})
}

// HandleConnection serves one subscriber connection until it closes.
func (h *Hub) HandleConnection(c *websocket.Conn, jobID string) {
	client := &Client{
		JobID: jobID,
		Conn:  c,
		Send:  make(chan []byte, 256),
		done:  make(chan struct{}),
	}

	h.Register(client)
	defer h.Unregister(client)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case message := <-client.Send:
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			case <-client.done:
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && h.log != nil {
				h.log.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			break
		}
		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			select {
			case client.Send <- data:
			case <-client.done:
				return
			}
		}
	}
}
