package api

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/thereceipt/print-agent/internal/command"
	"github.com/thereceipt/print-agent/internal/dispatch"
	"github.com/thereceipt/print-agent/internal/order"
	"github.com/thereceipt/print-agent/internal/printer"
)

// WebSocket message types
const (
	EventPrint           = "print"
	EventPrinted         = "printed"
	EventPrintFailed     = "print_failed"
	EventPrintersUpdated = "printers_updated"
	EventPrinterAdded    = "printer_added"
	EventPrinterRemoved  = "printer_removed"
	EventResponse        = "response"
	EventError           = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// inboundMessage is a client message. Data stays raw so order fields decode
// exactly as they do on POST /print.
type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSClient represents a connected WebSocket client
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	server *Server
}

// hub tracks connected clients for broadcasts
type hub struct {
	mu      sync.RWMutex
	clients map[*WSClient]bool
	logger  *zap.Logger
}

func newHub(logger *zap.Logger) *hub {
	return &hub{
		clients: make(map[*WSClient]bool),
		logger:  logger,
	}
}

func (h *hub) add(client *WSClient) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
}

// remove drops client and closes its send channel, once
func (h *hub) remove(client *WSClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *hub) broadcast(msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// Client send buffer full, skip
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		server: s,
	}
	s.hub.add(client)

	s.logger.Debug("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.readPump()
	go client.writePump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.server.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *WSClient) readPump() {
	defer func() {
		c.server.hub.remove(c)
		c.conn.Close()
		c.server.logger.Debug("websocket client disconnected")
	}()

	for {
		var msg inboundMessage
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		c.handleMessage(&msg)
	}
}

func (c *WSClient) handleMessage(msg *inboundMessage) {
	switch msg.Event {
	case EventPrint:
		c.handlePrintEvent(msg.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event: %s", msg.Event), "validation")
	}
}

// handlePrintEvent prints the flat print request carried in data. The
// outcome reaches every client through the dispatcher's broadcast; the
// sender also gets a direct response.
func (c *WSClient) handlePrintEvent(data json.RawMessage) {
	var req order.PrintJobRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError(fmt.Sprintf("invalid print data: %v", err), "validation")
		return
	}

	if err := c.server.dispatcher.Dispatch(context.Background(), req); err != nil {
		c.sendError(err.Error(), command.ErrorKind(err))
		return
	}

	c.sendResponse(map[string]interface{}{
		"success":  true,
		"order_id": req.Order.ID.String(),
		"printer":  req.PrinterName,
	})
}

// trySend queues msg unless the client is gone or not keeping up
func (c *WSClient) trySend(msg WSMessage) {
	h := c.server.hub
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *WSClient) sendResponse(data map[string]interface{}) {
	c.trySend(WSMessage{
		Event: EventResponse,
		Data:  data,
	})
}

func (c *WSClient) sendError(message, kind string) {
	c.trySend(WSMessage{
		Event: EventError,
		Data: map[string]interface{}{
			"error": message,
			"kind":  kind,
		},
	})
}

// BroadcastOutcome tells every client how a print job ended
func (s *Server) BroadcastOutcome(o dispatch.Outcome) {
	data := map[string]interface{}{
		"order_id": o.OrderID,
		"printer":  o.Printer,
		"at":       o.At.Format(time.RFC3339),
	}
	event := EventPrinted
	if o.Err != nil {
		event = EventPrintFailed
		data["error"] = o.Err.Error()
	}
	s.hub.broadcast(WSMessage{Event: event, Data: data})
}

// BroadcastPrinters sends a freshly refreshed printer list to every client
func (s *Server) BroadcastPrinters(list []printer.Descriptor) {
	s.hub.broadcast(WSMessage{
		Event: EventPrintersUpdated,
		Data: map[string]interface{}{
			"printers": list,
		},
	})
}

// BroadcastPrinterAdded broadcasts a printer added event to all connected clients
func (s *Server) BroadcastPrinterAdded(p printer.Descriptor) {
	s.hub.broadcast(WSMessage{
		Event: EventPrinterAdded,
		Data: map[string]interface{}{
			"name":      p.Name,
			"isDefault": p.IsDefault,
		},
	})
	s.logger.Info("printer added", zap.String("printer", p.Name))
}

// BroadcastPrinterRemoved broadcasts a printer removed event to all connected clients
func (s *Server) BroadcastPrinterRemoved(name string) {
	s.hub.broadcast(WSMessage{
		Event: EventPrinterRemoved,
		Data: map[string]interface{}{
			"name": name,
		},
	})
	s.logger.Info("printer removed", zap.String("printer", name))
}
