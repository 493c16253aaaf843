package utils

import (
	"fmt"
	"math"
	"time"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used accross the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// Colors used accross the CLI application.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

// DecorateText shows the message types in different colors.
func DecorateText(s string, msgType MessageType) string {
	var color string
	switch msgType {
	case DefaultMessage:
		color = DefaultColor
	case StatusMessage:
		color = StatusColor
	case SuccessMessage:
		color = SuccessColor
	case ErrorMessage:
		color = ErrorColor
	default:
		return s
	}
	return color + s + DefaultColor
}

// StatusLine prefixes a colored tag to the message, e.g. "⚡ STITCHER ⇢ blending images".
func StatusLine(tag, msg string, msgType MessageType) string {
	return fmt.Sprintf("%s %s %s",
		DecorateText(tag, StatusMessage),
		DecorateText("⇢", DefaultMessage),
		DecorateText(msg, msgType),
	)
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	secs := math.Mod(d.Seconds(), 60)
	mins := int64(math.Mod(d.Minutes(), 60))
	hours := int64(math.Mod(d.Hours(), 24))

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %.2fs", int64(d.Minutes()), secs)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh %dm %.2fs", int64(d.Hours()), mins, secs)
	}
	return fmt.Sprintf("%dd %dh %dm %.2fs", int64(d.Hours()/24), hours, mins, secs)
}
