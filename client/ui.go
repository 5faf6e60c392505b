package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/burntcarrot/richpad/commons"
	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var errServerClosed = errors.New("server closed")

// mainLoop processes input lines and hub messages one at a time. After each
// line it signals next so the reader may continue.
func mainLoop(ctx context.Context, s *session, lines <-chan string, next chan<- struct{}, msgs <-chan commons.Message) error {
	fmt.Fprint(s.out, "> ")
	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			err := s.handleCommand(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprint(s.out, "> ")
			next <- struct{}{}

		case msg, ok := <-msgs:
			if !ok {
				color.New(color.FgRed).Fprintln(s.out, "Server closed. Exiting...")
				return errServerClosed
			}
			s.handleMsg(msg)
		}
	}
}

// getLineChan returns a channel of lines read from r. The reader waits for a
// signal on next before reading the following line, so prompts opened while a
// line is handled have the input to themselves.
func getLineChan(r io.Reader, next <-chan struct{}) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
			if _, ok := <-next; !ok {
				return
			}
		}
	}()

	return lines
}

// getMsgChan returns a message channel that repeatedly reads from the hub
// connection. It is closed when reading fails.
func getMsgChan(conn ConnReader, logger logrus.FieldLogger) <-chan commons.Message {
	messageChan := make(chan commons.Message)

	go func() {
		defer close(messageChan)
		for {
			var msg commons.Message

			// Read message.
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Errorf("websocket error: %v", err)
				}
				return
			}

			logger.Infof("message received: %+v", msg.Type)

			// send message through channel
			messageChan <- msg
		}
	}()

	return messageChan
}
