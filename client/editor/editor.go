// Package editor holds the state of one editing surface and routes host
// events and toolbar buttons to the command engine.
package editor

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/burntcarrot/richpad/command"
	"github.com/burntcarrot/richpad/docsync"
	"github.com/burntcarrot/richpad/dom"
	"github.com/burntcarrot/richpad/geom"
	"github.com/burntcarrot/richpad/selection"
	"github.com/burntcarrot/richpad/toolbar"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrReadOnly is returned by every mutating button while editing is disabled.
	ErrReadOnly = errors.New("editor is read-only")

	ErrUnknownMode = errors.New("unknown apply mode")
)

// Messages shown through the Notifier.
const (
	MsgSelectToLink = "Select some text to link."
	MsgCaretInLink  = "Place the caret inside a link to remove it."
	LabelURL        = "Enter URL"
	LabelLinkText   = "Link text (optional):"
	LabelImageURL   = "Image URL (https://…):"
	LabelImageAlt   = "Alt text (optional):"
)

// View is the host's text-layout surface.
type View interface {
	Selection() selection.HostSelection
	Bounds() geom.Rect
	SetSelection(r selection.Range)
}

// Prompter asks the user for a line of text. ok is false when the user cancels.
type Prompter interface {
	RequestText(label string) (text string, ok bool)
}

// Notifier reports conditions the user can act on.
type Notifier interface {
	Notify(msg string)
}

// ApplyMode selects how apply-content loads html.
type ApplyMode string

const (
	Insert  ApplyMode = "insert"
	Replace ApplyMode = "replace"
)

func ParseApplyMode(s string) (ApplyMode, error) {
	switch m := ApplyMode(strings.ToLower(strings.TrimSpace(s))); m {
	case Insert, Replace:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Config wires an editor to its host.
type Config struct {
	Document *dom.Document
	View     View
	Prompter Prompter
	Notifier Notifier
	Logger   logrus.FieldLogger

	// OnContentChanged receives every committed serialization of the document.
	OnContentChanged func(html string)

	Toolbar  toolbar.Positioner
	Commands command.Options
}

// Editor is the state of one editing surface. All methods must be called
// from the host's event loop.
type Editor struct {
	ID uuid.UUID

	doc      *dom.Document
	view     View
	prompter Prompter
	notifier Notifier
	log      logrus.FieldLogger

	engine     *command.Engine
	sync       *docsync.Controller
	positioner toolbar.Positioner
	onChange   func(string)

	toolbar   toolbar.State
	measured  geom.Size
	lastRange *selection.Range
	editable  bool
}

// NewEditor returns an editable editor. Document and View are required.
func NewEditor(cfg Config) (*Editor, error) {
	if cfg.Document == nil || cfg.View == nil {
		return nil, errors.New("editor needs a document and a view")
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	if cfg.Toolbar == (toolbar.Positioner{}) {
		cfg.Toolbar = toolbar.New()
	}
	if cfg.Commands == (command.Options{}) {
		cfg.Commands = command.DefaultOptions()
	}

	e := &Editor{
		ID:         uuid.New(),
		doc:        cfg.Document,
		view:       cfg.View,
		prompter:   cfg.Prompter,
		notifier:   cfg.Notifier,
		positioner: cfg.Toolbar,
		onChange:   cfg.OnContentChanged,
		editable:   true,
	}
	e.log = cfg.Logger.WithField("editor", e.ID.String())
	e.engine = command.New(cfg.Document.Root(), cfg.Commands, e.log)

	sync, err := docsync.New(cfg.Document, e.publish, e.log)
	if err != nil {
		return nil, err
	}
	e.sync = sync

	return e, nil
}

func (e *Editor) publish(html string) {
	if e.onChange != nil {
		e.onChange(html)
	}
}

func (e *Editor) Document() *dom.Document { return e.doc }
func (e *Editor) Toolbar() toolbar.State { return e.toolbar }
func (e *Editor) Mode() docsync.Mode { return e.sync.Mode() }
func (e *Editor) Editable() bool { return e.editable }

// HTML serializes the live document.
func (e *Editor) HTML() (string, error) { return e.doc.HTML() }

// LastRange returns the last valid range seen inside the root, if any.
func (e *Editor) LastRange() (selection.Range, bool) {
	if e.lastRange == nil {
		return selection.Range{}, false
	}
	return *e.lastRange, true
}

// MouseUp, KeyUp and Scroll recompute the toolbar from the live selection.
func (e *Editor) MouseUp() { e.refreshToolbar() }
func (e *Editor) KeyUp() { e.refreshToolbar() }
func (e *Editor) Scroll() { e.refreshToolbar() }

// MouseDownOutside hides the toolbar after a click outside the container.
func (e *Editor) MouseDownOutside() { e.toolbar = toolbar.Hidden }

// MeasureToolbar records the rendered toolbar size used from now on.
func (e *Editor) MeasureToolbar(size geom.Size) {
	e.measured = size
	if e.toolbar.Visible {
		e.refreshToolbar()
	}
}

func (e *Editor) BeforeInput() { e.sync.BeforeInput() }
func (e *Editor) Input() error { return e.sync.Input() }
func (e *Editor) Blur() error { return e.sync.Blur() }

// Push offers externally held html to the sync controller.
func (e *Editor) Push(html string) (bool, error) {
	changed, err := e.sync.Push(html)
	if changed {
		e.lastRange = nil
		e.toolbar = toolbar.Hidden
	}
	return changed, err
}

// SetEditable toggles editing. A disabled editor rejects every button and
// never shows the toolbar.
func (e *Editor) SetEditable(editable bool) {
	e.editable = editable
	if !editable {
		e.toolbar = toolbar.Hidden
	}
	e.log.WithField("editable", editable).Info("editability changed")
}

func (e *Editor) refreshToolbar() {
	if !e.editable {
		e.toolbar = toolbar.Hidden
		return
	}

	sel := e.view.Selection()
	r, err := selection.Resolve(e.doc.Root(), sel)
	if err != nil {
		e.toolbar = toolbar.Hidden
		return
	}
	e.lastRange = &r

	// Whitespace-only selections have nothing worth formatting.
	if r.Collapsed() || strings.TrimSpace(r.Text()) == "" {
		e.toolbar = toolbar.Hidden
		return
	}
	e.toolbar = e.positioner.Position(selection.Bounds(sel), e.view.Bounds(), e.measured)
}

// target returns the live range inside the root, else the last valid one.
func (e *Editor) target() (selection.Range, error) {
	r, err := selection.Resolve(e.doc.Root(), e.view.Selection())
	if err == nil {
		e.lastRange = &r
		return r, nil
	}
	if e.lastRange != nil && selection.Within(e.doc.Root(), *e.lastRange) {
		return *e.lastRange, nil
	}
	return selection.Range{}, err
}

// afterCommand moves the caret, commits the document and refreshes the toolbar.
func (e *Editor) afterCommand(caret selection.Position) error {
	r := selection.Caret(caret)
	e.view.SetSelection(r)
	e.lastRange = &r

	if _, err := e.sync.Commit(); err != nil {
		return err
	}
	e.refreshToolbar()
	return nil
}

func (e *Editor) ask(label string) (string, bool) {
	if e.prompter == nil {
		return "", false
	}
	s, ok := e.prompter.RequestText(label)
	return strings.TrimSpace(s), ok
}

func (e *Editor) notify(msg string) {
	e.log.WithField("message", msg).Warn("notified user")
	if e.notifier != nil {
		e.notifier.Notify(msg)
	}
}

func (e *Editor) Bold() error { return e.format("strong") }
func (e *Editor) Italic() error { return e.format("em") }

func (e *Editor) format(tag string) error {
	if !e.editable {
		return ErrReadOnly
	}
	r, err := e.target()
	if err != nil {
		return err
	}

	res, err := e.engine.Wrap(r, tag)
	if err != nil {
		return err
	}
	return e.afterCommand(res.Caret)
}

// Link asks for a url and links the selection. With a caret only, it also
// asks for the text of the new link.
func (e *Editor) Link() error {
	if !e.editable {
		return ErrReadOnly
	}
	r, err := e.target()
	if err != nil {
		e.notify(MsgSelectToLink)
		return err
	}

	url, ok := e.ask(LabelURL)
	if !ok || url == "" {
		return command.ErrEmptyInput
	}
	var text string
	if r.Collapsed() {
		text, _ = e.ask(LabelLinkText)
	}

	res, err := e.engine.InsertLink(&r, url, text)
	if err != nil {
		return err
	}
	return e.afterCommand(res.Caret)
}

// Unlink removes the link at the start of the selection.
func (e *Editor) Unlink() error {
	if !e.editable {
		return ErrReadOnly
	}
	r, err := e.target()
	if err != nil {
		return err
	}

	res, err := e.engine.RemoveLink(r.Start)
	if errors.Is(err, command.ErrNoLinkAtCaret) {
		e.notify(MsgCaretInLink)
		return err
	}
	if err != nil {
		return err
	}
	return e.afterCommand(res.Caret)
}

// Image asks for a url and optional alt text and inserts an image at the
// selection, or at the end of the document when there is none.
func (e *Editor) Image() error {
	if !e.editable {
		return ErrReadOnly
	}

	url, ok := e.ask(LabelImageURL)
	if !ok || url == "" {
		return command.ErrEmptyInput
	}
	alt, _ := e.ask(LabelImageAlt)

	var at *selection.Range
	if r, err := e.target(); err == nil {
		at = &r
	}

	res, err := e.engine.InsertImage(at, url, alt)
	if err != nil {
		return err
	}
	if err := e.afterCommand(res.Caret); err != nil {
		return err
	}
	e.toolbar = toolbar.Hidden
	return nil
}

// ApplyContent loads html from the host. Replace swaps the whole document;
// Insert puts the content at the selection, or at the end of the document.
func (e *Editor) ApplyContent(mode ApplyMode, html string) error {
	switch mode {
	case Replace:
		if err := e.doc.SetHTML(html); err != nil {
			return err
		}
		e.lastRange = nil
		e.toolbar = toolbar.Hidden
		e.view.SetSelection(selection.Caret(selection.End(e.doc.Root())))
		_, err := e.sync.Commit()
		return err

	case Insert:
		var at *selection.Range
		if r, err := e.target(); err == nil {
			at = &r
		}
		res, err := e.engine.InsertHTML(at, html)
		if err != nil {
			return err
		}
		return e.afterCommand(res.Caret)
	}
	return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}
