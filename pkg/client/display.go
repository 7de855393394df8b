package client

import (
	"log/slog"

	"github.com/vango-dev/guisync/pkg/dom"
)

// Display writes status text into the error and message regions.
// A region missing from the document is skipped and the text is logged.
type Display struct {
	doc       dom.Document
	errorID   string
	messageID string
	logger    *slog.Logger
	lastError string
}

// NewDisplay creates a display over doc.
func NewDisplay(doc dom.Document, errorID, messageID string, logger *slog.Logger) *Display {
	if logger == nil {
		logger = slog.Default()
	}
	return &Display{doc: doc, errorID: errorID, messageID: messageID, logger: logger}
}

// ShowError replaces the error region's content with msg.
func (d *Display) ShowError(msg string) {
	d.lastError = msg
	if !d.write(d.errorID, msg) && msg != "" {
		d.logger.Warn("error region missing", "id", d.errorID, "error", msg)
	}
}

// Clear empties the error region.
func (d *Display) Clear() {
	d.ShowError("")
}

// Message replaces the message region's content with msg.
func (d *Display) Message(msg string) {
	if !d.write(d.messageID, msg) {
		d.logger.Info("message", "text", msg)
	}
}

// LastError returns the text most recently shown in the error region.
func (d *Display) LastError() string {
	return d.lastError
}

func (d *Display) write(id, text string) bool {
	el, ok := d.doc.ElementByID(id)
	if !ok || el == nil {
		return false
	}
	el.SetContent(text)
	return true
}
