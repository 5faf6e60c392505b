package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/burntcarrot/richpad/commons"
	"github.com/burntcarrot/richpad/config"
	"github.com/burntcarrot/richpad/docsync"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	sent []commons.Message
	err  error
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, v.(commons.Message))
	return nil
}

type fakeReader struct {
	msgs []commons.Message
}

func (r *fakeReader) ReadJSON(v interface{}) error {
	if len(r.msgs) == 0 {
		return io.EOF
	}
	*v.(*commons.Message) = r.msgs[0]
	r.msgs = r.msgs[1:]
	return nil
}

type scriptedPrompter struct {
	answers []string
}

func (p *scriptedPrompter) RequestText(string) (string, bool) {
	if len(p.answers) == 0 {
		return "", false
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, true
}

func newTestSession(t *testing.T, conn ConnWriter, initial string, answers ...string) (*session, *bytes.Buffer) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := config.DefaultConfig()
	cfg.InitialHTML = initial

	out := &bytes.Buffer{}
	s, err := newSession("alice", &cfg, conn, &scriptedPrompter{answers: answers}, out, logger, true)
	require.NoError(t, err)
	return s, out
}

func runLines(t *testing.T, s *session, lines ...string) {
	t.Helper()
	for _, line := range lines {
		require.NoError(t, s.handleCommand(line), line)
	}
}

func documentOf(t *testing.T, s *session) string {
	t.Helper()
	html, err := s.editor.HTML()
	require.NoError(t, err)
	return html
}

func TestCommands(t *testing.T) {
	tests := []struct {
		description string
		initial     string
		lines       []string
		answers     []string
		expected    string
	}{
		{description: "bold a word",
			initial: "hello world", lines: []string{"select 0 5", "bold"},
			expected: "<strong>hello</strong> world"},
		{description: "italic twice toggles",
			initial: "hello", lines: []string{"select 0 5", "italic", "select 0 5", "italic"},
			expected: "hello"},
		{description: "type at a caret",
			initial: "ab", lines: []string{"select 1", "type XY"},
			expected: "aXYb"},
		{description: "type over a selection",
			initial: "hello world", lines: []string{"select 6 11", "type there"},
			expected: "hello there"},
		{description: "link then unlink",
			initial: "go", lines: []string{"select 0 2", "link", "select 1", "unlink"},
			answers:  []string{"example.com"},
			expected: "go"},
		{description: "image at caret",
			initial: "abcdef", lines: []string{"select 3", "image"},
			answers:  []string{"x.test/a.png", "pic"},
			expected: `abc<img src="https://x.test/a.png" alt="pic" style="max-width:100%;height:auto;display:block;margin:0 0 8px 0;"/>def`},
		{description: "locked editor ignores typing and buttons",
			initial: "hello", lines: []string{"lock", "select 0 5", "bold", "type x"},
			expected: "hello"},
		{description: "offline apply replaces",
			initial: "old", lines: []string{"apply replace <p>new</p>"},
			expected: "<p>new</p>"},
		{description: "offline apply inserts at the caret",
			initial: "ab", lines: []string{"select 1", "apply insert <em>x</em>"},
			expected: "a<em>x</em>b"},
		{description: "bad input is reported, not fatal",
			initial: "abc", lines: []string{"select", "select 9", "scroll up", "apply merge x", "frobnicate"},
			expected: "abc"},
	}

	for _, tc := range tests {
		s, _ := newTestSession(t, nil, tc.initial, tc.answers...)
		runLines(t, s, tc.lines...)

		if got := documentOf(t, s); got != tc.expected {
			t.Errorf("(%s) got != expected, diff: %v\n", tc.description, cmp.Diff(got, tc.expected))
		}
	}
}

func TestQuit(t *testing.T) {
	s, _ := newTestSession(t, nil, "")
	require.ErrorIs(t, s.handleCommand("!q"), errQuit)
}

func TestOutput(t *testing.T) {
	s, out := newTestSession(t, nil, "<p>one</p>")
	runLines(t, s, "html", "toolbar", "select 0 3", "toolbar", "unlink", "lock", "bold")

	for _, want := range []string{
		"<p>one</p>",
		"  | one",
		"toolbar hidden",
		"toolbar at left=8 top=8",
		"Place the caret inside a link to remove it.",
		"The editor is locked.",
	} {
		require.Contains(t, out.String(), want)
	}
}

func TestBlurHidesToolbar(t *testing.T) {
	s, out := newTestSession(t, nil, "hello")
	runLines(t, s, "select 0 5", "toolbar", "blur", "toolbar")

	require.False(t, s.editor.Toolbar().Visible)
	require.Equal(t, docsync.Idle, s.editor.Mode())

	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	expected := []string{"toolbar at left=8 top=8", "toolbar hidden"}
	if !cmp.Equal(got, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(got, expected))
	}
}

func TestContentChangesAreSent(t *testing.T) {
	conn := &fakeConn{}
	s, _ := newTestSession(t, conn, "hi")
	runLines(t, s, "select 2", "type !", "blur")

	expected := []commons.Message{commons.Changed("alice", "hi!")}
	if !cmp.Equal(conn.sent, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(conn.sent, expected))
	}
}

func TestApplyIsSentToTheHub(t *testing.T) {
	conn := &fakeConn{}
	s, _ := newTestSession(t, conn, "text")
	runLines(t, s, "apply replace", "docs")

	expected := []commons.Message{
		{Username: "alice", Type: commons.ApplyContentMessage, Operation: commons.Operation{Mode: "replace", HTML: commons.SampleHTML}},
		{Username: "alice", Type: commons.DocReqMessage},
	}
	if !cmp.Equal(conn.sent, expected) {
		t.Errorf("got != expected, diff: %v\n", cmp.Diff(conn.sent, expected))
	}

	// The document only changes when the hub fans the command back out.
	require.Equal(t, "text", documentOf(t, s))
	s.handleMsg(conn.sent[0])
	require.Equal(t, commons.SampleHTML, documentOf(t, s))
}

func TestLostConnection(t *testing.T) {
	conn := &fakeConn{err: errors.New("broken pipe")}
	s, out := newTestSession(t, conn, "")

	require.Error(t, s.handleCommand("docs"))

	// Content changes keep working locally.
	runLines(t, s, "select 0", "type x")
	require.Equal(t, "x", documentOf(t, s))
	require.Contains(t, out.String(), "lost connection!")
}

func TestHandleMsg(t *testing.T) {
	s, out := newTestSession(t, &fakeConn{}, "mine")

	s.handleMsg(commons.Message{Type: commons.JoinMessage, Username: "bob"})
	s.handleMsg(commons.Message{Type: commons.UsersMessage, Text: "alice, bob"})
	s.handleMsg(commons.Changed("bob", "<em>peer</em>"))
	s.handleMsg(commons.Changed("alice", "ignored"))
	s.handleMsg(commons.Message{Type: "bogus"})

	for _, want := range []string{"bob has joined the session!", "Active users: alice, bob", "[bob] <em>peer</em>"} {
		require.Contains(t, out.String(), want)
	}
	require.NotContains(t, out.String(), "ignored")
	require.Equal(t, "mine", documentOf(t, s))
}

func TestDocSyncRestoresOwnStream(t *testing.T) {
	s, out := newTestSession(t, &fakeConn{}, "")

	s.handleMsg(commons.Message{Type: commons.DocSyncMessage, Documents: map[string]string{
		"alice": "<p>saved</p>",
		"bob":   "theirs",
	}})

	require.Equal(t, "<p>saved</p>", documentOf(t, s))
	require.Contains(t, out.String(), "[bob] theirs")
}

func TestDocSyncWhileTyping(t *testing.T) {
	s, _ := newTestSession(t, &fakeConn{}, "ab")
	runLines(t, s, "select 2")
	s.editor.BeforeInput()
	require.Equal(t, docsync.Editing, s.editor.Mode())

	s.handleMsg(commons.Message{Type: commons.DocSyncMessage, Documents: map[string]string{"alice": "remote"}})
	require.Equal(t, "ab", documentOf(t, s))
}

func TestMainLoop(t *testing.T) {
	s, _ := newTestSession(t, nil, "")

	next := make(chan struct{})
	lines := getLineChan(strings.NewReader("select 0\ntype hello\n!q\ntype never\n"), next)

	require.NoError(t, mainLoop(context.Background(), s, lines, next, nil))
	require.Equal(t, "hello", documentOf(t, s))
}

func TestMainLoopServerClosed(t *testing.T) {
	s, _ := newTestSession(t, &fakeConn{}, "")

	reader := &fakeReader{msgs: []commons.Message{commons.Apply(commons.ModeReplace, "<p>x</p>")}}
	msgs := getMsgChan(reader, logrus.New())

	err := mainLoop(context.Background(), s, nil, make(chan struct{}), msgs)
	require.ErrorIs(t, err, errServerClosed)
	require.Equal(t, "<p>x</p>", documentOf(t, s))
}
