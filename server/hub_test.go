package main

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/burntcarrot/richpad/commons"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) string {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger, io.Discard)
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// join dials the hub and waits until the hub has listed the new user.
func join(t *testing.T, url, name string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, conn.WriteJSON(commons.Message{Username: name, Type: commons.JoinMessage, Text: "has joined."}))
	users := readUntil(t, conn, commons.UsersMessage)
	require.Contains(t, users.Text, name)
	return conn
}

// readUntil skips messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ commons.MessageType) commons.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg commons.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func TestUsers(t *testing.T) {
	url := startHub(t)
	alice := join(t, url, "alice")
	join(t, url, "bob")

	joined := readUntil(t, alice, commons.JoinMessage)
	require.Equal(t, "bob", joined.Username)

	users := readUntil(t, alice, commons.UsersMessage)
	require.Equal(t, "alice, bob", users.Text)
}

func TestApplyContentReachesEveryEditor(t *testing.T) {
	url := startHub(t)
	alice := join(t, url, "alice")
	bob := join(t, url, "bob")

	require.NoError(t, alice.WriteJSON(commons.Apply(commons.ModeReplace, "<p>x</p>")))

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readUntil(t, conn, commons.ApplyContentMessage)
		require.Equal(t, commons.Operation{Mode: commons.ModeReplace, HTML: "<p>x</p>"}, msg.Operation)
	}
}

func TestContentChangedIsForwardedAndStored(t *testing.T) {
	url := startHub(t)
	alice := join(t, url, "alice")
	bob := join(t, url, "bob")

	require.NoError(t, alice.WriteJSON(commons.Changed("alice", "<em>hi</em>")))

	msg := readUntil(t, bob, commons.ContentChangedMessage)
	require.Equal(t, "alice", msg.Username)
	require.Equal(t, "<em>hi</em>", msg.Operation.HTML)

	require.NoError(t, bob.WriteJSON(commons.Changed("bob", "plain")))
	require.NoError(t, bob.WriteJSON(commons.Message{Type: commons.DocReqMessage}))

	sync := readUntil(t, bob, commons.DocSyncMessage)
	require.Equal(t, map[string]string{"alice": "<em>hi</em>", "bob": "plain"}, sync.Documents)
}
