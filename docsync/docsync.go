// Package docsync decides which way content flows between the live document
// and the html held by the host.
package docsync

import (
	"fmt"
	"io"

	"github.com/burntcarrot/richpad/dom"
	"github.com/sirupsen/logrus"
)

// Mode is the state of the controller.
type Mode int

const (
	// Idle lets external html replace the document.
	Idle Mode = iota
	// Editing means the user is typing; only local commits flow out.
	Editing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Publisher receives every committed serialization of the document.
type Publisher func(html string)

// Controller is a two-state machine guarding the document against external
// overwrites while the user types. It is not safe for concurrent use; the
// owning surface drives it from a single event loop.
type Controller struct {
	doc     *dom.Document
	publish Publisher
	log     logrus.FieldLogger

	mode      Mode
	committed string
	dropped   int
}

// New returns an idle controller for doc. The current content counts as
// committed, so an untouched document is never published.
func New(doc *dom.Document, publish Publisher, log logrus.FieldLogger) (*Controller, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if publish == nil {
		publish = func(string) {}
	}

	html, err := doc.HTML()
	if err != nil {
		return nil, fmt.Errorf("serialize initial document: %w", err)
	}
	return &Controller{doc: doc, publish: publish, log: log, committed: html}, nil
}

func (c *Controller) Mode() Mode { return c.mode }

// Committed returns the last html handed to the publisher (or loaded from a push).
func (c *Controller) Committed() string { return c.committed }

// Dropped returns how many pushes were ignored while editing.
func (c *Controller) Dropped() int { return c.dropped }

// BeforeInput fires before the host applies a native text change.
func (c *Controller) BeforeInput() {
	if c.mode == Editing {
		return
	}
	c.mode = Editing
	c.log.WithField("mode", c.mode).Debug("entered editing")
}

// Input fires after the host changed the document; the new content is committed.
func (c *Controller) Input() error {
	_, err := c.Commit()
	return err
}

// Blur ends editing and makes a final commit.
func (c *Controller) Blur() error {
	if c.mode == Editing {
		c.mode = Idle
		c.log.WithFields(logrus.Fields{"mode": c.mode, "dropped": c.dropped}).Debug("left editing")
	}
	_, err := c.Commit()
	return err
}

// Commit serializes the document and publishes it when it differs from the
// last commit. It reports whether anything was published.
func (c *Controller) Commit() (bool, error) {
	html, err := c.doc.HTML()
	if err != nil {
		return false, fmt.Errorf("serialize document: %w", err)
	}
	if html == c.committed {
		return false, nil
	}

	c.committed = html
	c.publish(html)
	c.log.WithField("bytes", len(html)).Debug("committed document")
	return true, nil
}

// Push offers externally held html. In Idle the document is replaced unless
// html is an echo of the last commit. While Editing the push is dropped and
// never replayed. It reports whether the document changed.
func (c *Controller) Push(html string) (bool, error) {
	if c.mode == Editing {
		c.dropped++
		c.log.WithFields(logrus.Fields{"mode": c.mode, "dropped": c.dropped}).Warn("ignored external content while editing")
		return false, nil
	}
	if html == c.committed {
		return false, nil
	}

	if err := c.doc.SetHTML(html); err != nil {
		return false, fmt.Errorf("load external content: %w", err)
	}
	normalized, err := c.doc.HTML()
	if err != nil {
		return false, fmt.Errorf("serialize document: %w", err)
	}

	// Unnormalized markup can parse back to what is already committed.
	changed := normalized != c.committed
	c.committed = normalized
	c.log.WithFields(logrus.Fields{"bytes": len(html), "changed": changed}).Debug("replaced document from external content")
	return changed, nil
}
