package commons

// Operation is the content carried by applyContent and contentChanged.
type Operation struct {
	// Mode is "insert" or "replace" for applyContent and empty otherwise.
	Mode string `json:"mode,omitempty"`

	// HTML is the serialized document content.
	HTML string `json:"html"`
}

// Apply modes understood by every editor.
const (
	ModeInsert  = "insert"
	ModeReplace = "replace"
)

// SampleHTML is applied when an applyContent command carries no html.
const SampleHTML = `<h2>Sample Lesson Title</h2>` +
	`<p>This paragraph was <strong>AI-formatted</strong>. It includes a ` +
	`<a href="https://example.com" target="_blank" rel="noopener noreferrer">link</a>.</p>` +
	`<ul><li>Bullet one</li><li>Bullet two</li></ul>` +
	`<p><img src="https://placehold.co/600x300" alt="Placeholder"/></p>`

// Apply returns an applyContent message. Empty html is replaced by SampleHTML.
func Apply(mode, html string) Message {
	if html == "" {
		html = SampleHTML
	}
	return Message{Type: ApplyContentMessage, Operation: Operation{Mode: mode, HTML: html}}
}

// Changed returns a contentChanged message for an editor's committed html.
func Changed(username, html string) Message {
	return Message{Username: username, Type: ContentChangedMessage, Operation: Operation{HTML: html}}
}
