package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/burntcarrot/richpad/commons"
	"github.com/burntcarrot/richpad/config"
	"github.com/burntcarrot/richpad/tui"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	flags := Flags{}

	app := &cli.Command{
		Name:  "richpad",
		Usage: "Rich-text editing surface connected to a richpad hub",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Usage:       "The network address of the server",
				Sources:     cli.EnvVars("RICHPAD_SERVER"),
				Value:       "localhost:8080",
				Destination: &flags.Server,
			},
			&cli.BoolFlag{
				Name:        "secure",
				Usage:       "Enable a secure WebSocket connection (wss://)",
				Destination: &flags.Secure,
			},
			&cli.StringFlag{
				Name:        "name",
				Aliases:     []string{"n"},
				Usage:       "Your name, shown to other editors",
				Sources:     cli.EnvVars("RICHPAD_NAME"),
				Destination: &flags.Name,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("RICHPAD_CONFIG"),
				Value:       defaultConfigPath(),
				Destination: &flags.Config,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Enable debugging mode to show more verbose logs",
				Destination: &flags.Debug,
			},
			&cli.BoolFlag{
				Name:        "offline",
				Usage:       "Run without a server; apply-content is handled locally",
				Destination: &flags.Offline,
			},
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return run(ctx, flags)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".richpad", "config.yaml")
}

func run(ctx context.Context, flags Flags) error {
	logger := logrus.New()
	logFile, debugLogFile, err := setupLogger(logger, flags.Debug)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer closeLogFiles(logFile, debugLogFile)

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	prompter := tui.Prompter{}

	// Read username.
	name := strings.TrimSpace(flags.Name)
	if name == "" {
		name, _ = prompter.RequestText(color.YellowString("Enter your name:"))
		if name = strings.TrimSpace(name); name == "" {
			name = "anonymous"
		}
	}

	var (
		conn ConnWriter
		msgs <-chan commons.Message
	)
	if !flags.Offline {
		ws, _, err := createConn(flags)
		if err != nil {
			return fmt.Errorf("connection error: %w", err)
		}
		defer ws.Close()
		conn = ws
		msgs = getMsgChan(ws, logger)
	}

	s, err := newSession(name, cfg, conn, prompter, os.Stdout, logger, flags.Debug)
	if err != nil {
		return err
	}

	// Display welcome message.
	color.Green("\nWelcome %s!\n", name)
	if flags.Offline {
		color.Green("Running offline.\n")
	} else {
		color.Green("Connected to server @ %s\n", flags.Server)
		if err := s.send(commons.Message{Type: commons.JoinMessage, Text: "has joined the session."}); err != nil {
			return err
		}
		if err := s.send(commons.Message{Type: commons.DocReqMessage}); err != nil {
			return err
		}
	}
	color.Yellow("Type help for the list of commands, or !q to exit.\n")

	next := make(chan struct{})
	lines := getLineChan(os.Stdin, next)

	if err := mainLoop(ctx, s, lines, next, msgs); err != nil {
		return err
	}

	fmt.Println("Goodbye!")
	return nil
}
