// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Input operations
	OpPlaylistParse Op = "parse playlist"
	OpCueParse      Op = "split cue sheet"
	OpDirExpand     Op = "expand directory"
	OpInputOpen     Op = "open input"
	OpInputUnknown  Op = "find a reader for"

	// Codec operations
	OpDecode Op = "decode"
	OpProbe  Op = "read file tags"

	// Tag operations
	OpTagWrite    Op = "write tags"
	OpPictureLoad Op = "load picture"

	// Queue operations
	OpQueueSave   Op = "save queue"
	OpQueueLoad   Op = "load queue"
	OpQueueList   Op = "list saved queues"
	OpQueueDelete Op = "delete saved queue"

	// Initialization
	OpConfigLoad Op = "load config"
	OpStateOpen  Op = "open state database"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
