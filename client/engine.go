package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/burntcarrot/richpad/client/editor"
	"github.com/burntcarrot/richpad/command"
	"github.com/burntcarrot/richpad/commons"
	"github.com/burntcarrot/richpad/config"
	"github.com/burntcarrot/richpad/dom"
	"github.com/burntcarrot/richpad/layout"
	"github.com/burntcarrot/richpad/selection"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ConnWriter is the part of the hub connection a session writes to.
type ConnWriter interface {
	WriteJSON(v interface{}) error
}

// ConnReader is the part of the hub connection messages are read from.
type ConnReader interface {
	ReadJSON(v interface{}) error
}

var (
	// errQuit is returned by handleCommand for "!q".
	errQuit = errors.New("richpad: exiting")

	errUsage = errors.New("usage")
)

const helpText = `commands:
  select A [B]        select units A..B (caret at A when B is omitted)
  type TEXT           type TEXT at the selection
  bold | italic       toggle formatting on the selection
  link | unlink       add or remove a link
  image               insert an image
  blur                click outside the editor (hides the toolbar)
  scroll DY           scroll the editor by DY
  apply MODE [HTML]   send apply-content (insert|replace) to every editor
  lock | unlock       toggle editability
  html | toolbar      show the document or the toolbar state
  docs                request every editor's content
  !q                  quit`

// session is one editor connected to the hub. It is driven by a single loop.
type session struct {
	name   string
	editor *editor.Editor
	view   *layout.View
	conn   ConnWriter
	out    io.Writer
	log    logrus.FieldLogger
	debug  bool
}

// newSession builds the document, view and editor. A nil conn runs offline.
func newSession(name string, cfg *config.Config, conn ConnWriter, prompter editor.Prompter, out io.Writer, log logrus.FieldLogger, debug bool) (*session, error) {
	doc := dom.New()
	if cfg.InitialHTML != "" {
		if err := doc.SetHTML(cfg.InitialHTML); err != nil {
			return nil, fmt.Errorf("load initial html: %w", err)
		}
	}

	s := &session{
		name:  name,
		view:  layout.New(doc, cfg.Metrics(), cfg.Container()),
		conn:  conn,
		out:   out,
		log:   log,
		debug: debug,
	}

	e, err := editor.NewEditor(editor.Config{
		Document:         doc,
		View:             s.view,
		Prompter:         prompter,
		Notifier:         s,
		Logger:           log,
		OnContentChanged: s.contentChanged,
		Toolbar:          cfg.Positioner(),
		Commands:         cfg.CommandOptions(),
	})
	if err != nil {
		return nil, err
	}
	s.editor = e

	return s, nil
}

// Notify prints a condition the user can act on.
func (s *session) Notify(msg string) {
	color.New(color.FgYellow).Fprintln(s.out, msg)
}

func (s *session) contentChanged(html string) {
	s.log.WithField("bytes", len(html)).Info("content changed")
	if err := s.send(commons.Changed(s.name, html)); err != nil {
		s.log.WithError(err).Error("sending content change")
		color.New(color.FgRed).Fprintln(s.out, "lost connection!")
	}
}

// send writes msg to the hub. Offline, apply-content is handled locally and
// everything else is dropped.
func (s *session) send(msg commons.Message) error {
	if msg.Username == "" {
		msg.Username = s.name
	}
	if s.conn == nil {
		if msg.Type == commons.ApplyContentMessage {
			s.handleMsg(msg)
		}
		return nil
	}
	return s.conn.WriteJSON(msg)
}

// handleCommand runs one input line. It returns errQuit to end the session
// and other errors only when the hub can no longer be reached.
func (s *session) handleCommand(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cmd, args, _ := strings.Cut(line, " ")
	args = strings.TrimSpace(args)

	s.log.WithFields(logrus.Fields{"command": cmd, "args": args}).Debug("command received")

	var err error
	switch cmd {
	case "!q":
		return errQuit

	case "help":
		fmt.Fprintln(s.out, helpText)

	case "select":
		err = s.selectUnits(args)

	case "type":
		err = s.typeText(args)

	case "bold":
		err = s.editor.Bold()
	case "italic":
		err = s.editor.Italic()
	case "link":
		err = s.editor.Link()
	case "unlink":
		err = s.editor.Unlink()
	case "image":
		err = s.editor.Image()

	case "blur":
		// Leaving the editor is a click outside it.
		s.editor.MouseDownOutside()
		err = s.editor.Blur()

	case "scroll":
		var dy float64
		if dy, err = strconv.ParseFloat(args, 64); err != nil {
			err = fmt.Errorf("%w: scroll DY", errUsage)
			break
		}
		s.view.ScrollBy(dy)
		s.editor.Scroll()

	case "apply":
		modeArg, html, _ := strings.Cut(args, " ")
		var mode editor.ApplyMode
		if mode, err = editor.ParseApplyMode(modeArg); err != nil {
			break
		}
		if sendErr := s.send(commons.Apply(string(mode), strings.TrimSpace(html))); sendErr != nil {
			return fmt.Errorf("sending apply-content: %w", sendErr)
		}

	case "lock":
		s.editor.SetEditable(false)
	case "unlock":
		s.editor.SetEditable(true)

	case "html":
		s.showDocument()

	case "toolbar":
		t := s.editor.Toolbar()
		if !t.Visible {
			fmt.Fprintln(s.out, "toolbar hidden")
		} else {
			fmt.Fprintf(s.out, "toolbar at left=%g top=%g\n", t.Left, t.Top)
		}

	case "docs":
		if sendErr := s.send(commons.Message{Type: commons.DocReqMessage}); sendErr != nil {
			return fmt.Errorf("sending docReq: %w", sendErr)
		}

	default:
		err = fmt.Errorf("%w: unknown command %q, try help", errUsage, cmd)
	}

	s.report(err)
	return nil
}

func (s *session) selectUnits(args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return fmt.Errorf("%w: select A [B]", errUsage)
	}

	a, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("%w: select A [B]", errUsage)
	}
	b := a
	if len(fields) == 2 {
		if b, err = strconv.Atoi(fields[1]); err != nil {
			return fmt.Errorf("%w: select A [B]", errUsage)
		}
	}

	if err := s.view.Select(a, b); err != nil {
		return err
	}
	s.editor.MouseUp()
	return nil
}

// typeText types like the host would: before-input, the native change, input.
func (s *session) typeText(text string) error {
	if !s.editor.Editable() {
		return editor.ErrReadOnly
	}
	s.editor.BeforeInput()
	if err := s.view.InsertText(text); err != nil {
		return err
	}
	if err := s.editor.Input(); err != nil {
		return err
	}
	s.editor.KeyUp()
	return nil
}

// report prints err. Conditions the user can fix are shown in yellow.
func (s *session) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, selection.ErrNoSelection):
		s.Notify("Select some text first.")
	case errors.Is(err, command.ErrEmptyInput):
		s.Notify("Cancelled.")
	case errors.Is(err, editor.ErrReadOnly):
		s.Notify("The editor is locked.")
	case errors.Is(err, command.ErrNoLinkAtCaret):
		// Already notified by the editor.
	default:
		s.log.WithError(err).Warn("command failed")
		color.New(color.FgRed).Fprintln(s.out, err)
	}
}

func (s *session) showDocument() {
	html, err := s.editor.HTML()
	if err != nil {
		s.report(err)
		return
	}
	color.New(color.FgCyan).Fprintln(s.out, html)
	for _, line := range s.view.Lines() {
		fmt.Fprintf(s.out, "  | %s\n", line)
	}
}

// handleMsg applies a message received from the hub.
func (s *session) handleMsg(msg commons.Message) {
	switch msg.Type {
	case commons.JoinMessage:
		color.New(color.FgMagenta).Fprintf(s.out, "%s has joined the session!\n", msg.Username)

	case commons.UsersMessage:
		color.New(color.FgMagenta).Fprintf(s.out, "Active users: %s\n", msg.Text)

	case commons.ApplyContentMessage:
		mode, err := editor.ParseApplyMode(msg.Operation.Mode)
		if err == nil {
			err = s.editor.ApplyContent(mode, msg.Operation.HTML)
		}
		s.report(err)

	case commons.ContentChangedMessage:
		if msg.Username != s.name {
			s.preview(msg.Username, msg.Operation.HTML)
		}

	case commons.DocSyncMessage:
		s.log.WithField("editors", len(msg.Documents)).Info("docSync received")

		names := make([]string, 0, len(msg.Documents))
		for name := range msg.Documents {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			html := msg.Documents[name]
			if name != s.name {
				s.preview(name, html)
				continue
			}
			// Our own stream, kept by the hub across reconnects.
			if _, err := s.editor.Push(html); err != nil {
				s.report(err)
			}
		}

	default:
		s.log.WithField("type", msg.Type).Warn("unknown message type")
	}

	html, _ := s.editor.HTML()
	printDoc(s.log, s.debug, html, s.view.Lines())
}

func (s *session) preview(name, html string) {
	color.New(color.FgMagenta).Fprintf(s.out, "[%s] %s\n", name, html)
}
