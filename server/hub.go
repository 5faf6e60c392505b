package main

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/burntcarrot/richpad/commons"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// client is a connected editor.
type client struct {
	id   uuid.UUID
	name string
	conn *websocket.Conn
}

// Hub relays messages between editors. Only the Run goroutine touches the
// client set and writes to connections.
type Hub struct {
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
	console  io.Writer

	register   chan *client
	unregister chan *client
	messages   chan commons.Message
	done       chan struct{}

	clients map[uuid.UUID]*client
	docs    map[string]string
}

// NewHub returns a hub that prints a line per message to console.
func NewHub(log logrus.FieldLogger, console io.Writer) *Hub {
	return &Hub{
		log:        log,
		console:    console,
		register:   make(chan *client),
		unregister: make(chan *client),
		messages:   make(chan commons.Message),
		done:       make(chan struct{}),
		clients:    make(map[uuid.UUID]*client),
		docs:       make(map[string]string),
	}
}

// ServeHTTP upgrades the connection and reads messages from it until it fails.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("upgrading connection to websocket")
		return
	}

	// Generate a UUID for the client.
	c := &client{id: uuid.New(), conn: conn}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	for {
		var msg commons.Message

		if err := conn.ReadJSON(&msg); err != nil {
			h.log.WithField("client", c.id).Info("closing connection")
			break
		}

		// Set message ID
		msg.ID = c.id

		select {
		case h.messages <- msg:
		case <-h.done:
			return
		}
	}

	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes registrations and messages until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				c.conn.Close()
			}
			return

		case c := <-h.register:
			h.clients[c.id] = c
			h.log.WithField("client", c.id).Info("client connected")

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.messages:
			h.handle(msg)
		}
	}
}

func (h *Hub) handle(msg commons.Message) {
	// Log each message to the console.
	t := time.Now().Format(time.ANSIC)
	color.New(color.FgGreen).Fprintf(h.console, "%s >> %s %s\n", t, msg.Username, msg.Type)

	switch msg.Type {
	case commons.JoinMessage:
		if c, ok := h.clients[msg.ID]; ok {
			c.name = msg.Username
		}
		h.broadcast(msg, msg.ID)
		h.broadcast(commons.Message{Type: commons.UsersMessage, Text: h.users()}, uuid.Nil)

	case commons.ApplyContentMessage:
		// The sender's own editor applies the content too.
		h.broadcast(msg, uuid.Nil)

	case commons.ContentChangedMessage:
		h.docs[msg.Username] = msg.Operation.HTML
		h.broadcast(msg, msg.ID)

	case commons.DocReqMessage:
		docs := make(map[string]string, len(h.docs))
		for name, html := range h.docs {
			docs[name] = html
		}
		h.send(msg.ID, commons.Message{Type: commons.DocSyncMessage, Documents: docs})

	default:
		h.log.WithField("type", msg.Type).Warn("unknown message type")
	}
}

// broadcast sends msg to every client except skip.
func (h *Hub) broadcast(msg commons.Message, skip uuid.UUID) {
	for id := range h.clients {
		if id != skip {
			h.send(id, msg)
		}
	}
}

func (h *Hub) send(id uuid.UUID, msg commons.Message) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		h.log.WithError(err).WithField("client", id).Error("sending message to client")
		h.drop(c)
	}
}

func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	c.conn.Close()
	h.log.WithFields(logrus.Fields{"client": c.id, "name": c.name}).Info("client disconnected")
}

// users lists the names of joined clients.
func (h *Hub) users() string {
	var names []string
	for _, c := range h.clients {
		if c.name != "" {
			names = append(names, c.name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
