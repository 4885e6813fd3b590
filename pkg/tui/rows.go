package tui

import (
	"fmt"

	"github.com/ZentaChain/zentalk-cups/pkg/protocol"
)

const (
	// sidebarNameWidth is the column width of contact names
	sidebarNameWidth = 30

	// sidebarLabelWidth is how much of the key label unnamed contacts show
	sidebarLabelWidth = 27

	feedTimeLayout = "2006-01-02 15:04"
)

// SidebarRow formats one contact of the list
func SidebarRow(user protocol.UserRecord) string {
	if user.Name != nil {
		return fmt.Sprintf(" - %-*s -> %d", sidebarNameWidth, truncate(*user.Name, sidebarNameWidth), user.Unread)
	}
	return fmt.Sprintf("- %s... -> %d", user.ID.Label()[:sidebarLabelWidth], user.Unread)
}

// FeedRow formats one message of the conversation
func FeedRow(msg protocol.MessageRecord) string {
	arrow := ">>"
	if msg.Inbound {
		arrow = "<<"
	}
	return fmt.Sprintf("%s %s %s", msg.Time().Local().Format(feedTimeLayout), arrow, msg.Content)
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
