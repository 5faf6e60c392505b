package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

// Flags represents the command-line flags that are passed to richpad's client.
type Flags struct {
	Server  string
	Secure  bool
	Name    string
	Config  string
	Debug   bool
	Offline bool
}

// createConn creates a WebSocket connection.
func createConn(flags Flags) (*websocket.Conn, *http.Response, error) {
	var u url.URL
	if flags.Secure {
		u = url.URL{Scheme: "wss", Host: flags.Server, Path: "/"}
	} else {
		u = url.URL{Scheme: "ws", Host: flags.Server, Path: "/"}
	}

	// Get WebSocket connection.
	dialer := websocket.Dialer{
		HandshakeTimeout: 2 * time.Minute,
	}

	return dialer.Dial(u.String(), nil)
}

// ensureDirExists ensures that a directory exists, and if it isn't present, it tries to create a new one.
func ensureDirExists(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return true, nil
	}

	if err := os.Mkdir(path, 0700); err != nil {
		return false, err
	}

	return true, nil
}

// setupLogger initializes the client's logger (logrus). Warnings and errors
// go to richpad.log, everything else to richpad-debug.log.
func setupLogger(logger *logrus.Logger, debug bool) (*os.File, *os.File, error) {
	logPath := "richpad.log"
	debugLogPath := "richpad-debug.log"

	// Get the home directory.
	homeDirExists := true
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDirExists = false
	}

	richpadDir := filepath.Join(homeDir, ".richpad")

	dirExists, err := ensureDirExists(richpadDir)
	if err != nil {
		return nil, nil, err
	}

	if dirExists && homeDirExists {
		logPath = filepath.Join(richpadDir, "richpad.log")
		debugLogPath = filepath.Join(richpadDir, "richpad-debug.log")
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	debugLogFile, err := os.OpenFile(debugLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) // skipcq: GSC-G302
	if err != nil {
		logFile.Close()
		return nil, nil, fmt.Errorf("open debug log file: %w", err)
	}

	logger.SetOutput(io.Discard)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	logger.AddHook(&writer.Hook{
		Writer: logFile,
		LogLevels: []logrus.Level{
			logrus.WarnLevel,
			logrus.ErrorLevel,
			logrus.FatalLevel,
			logrus.PanicLevel,
		},
	})
	logger.AddHook(&writer.Hook{
		Writer: debugLogFile,
		LogLevels: []logrus.Level{
			logrus.TraceLevel,
			logrus.DebugLevel,
			logrus.InfoLevel,
		},
	})

	return logFile, debugLogFile, nil
}

// closeLogFiles closes the log files created by the client.
// closeLogFiles is meant to be used for defer calls.
func closeLogFiles(logFile, debugLogFile *os.File) {
	if err := logFile.Close(); err != nil {
		fmt.Printf("Failed to close log file: %s", err)
		return
	}

	if err := debugLogFile.Close(); err != nil {
		fmt.Printf("Failed to close debug log file: %s", err)
		return
	}
}

// printDoc "prints" the document state to the logs.
func printDoc(logger logrus.FieldLogger, debug bool, html string, lines []string) {
	if !debug {
		return
	}
	logger.Debugf("---DOCUMENT STATE---")
	logger.WithField("html", html).Debug("serialized document")
	for i, line := range lines {
		logger.Debugf("line: %v  text: %s", i, line)
	}
}
