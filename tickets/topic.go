// Package tickets holds the state behind report tickets: who filed which
// ticket, which staff member claimed which reporter, reports still being
// filled in, decisions and pending channel deletions.
package tickets

import (
	"regexp"
	"strings"
)

const (
	TopicPrefix       = "Report by "
	ChannelNamePrefix = "report-"
)

var channelNameStrip = regexp.MustCompile(`[^a-z0-9-]`)

// FormatTopic returns the channel topic that marks a ticket as filed by
// reporterID. The topic is the canonical record of the reporter.
func FormatTopic(reporterID string) string {
	return TopicPrefix + reporterID
}

// ParseTopic recovers the reporter ID from a ticket channel topic.
func ParseTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, TopicPrefix) {
		return "", false
	}
	id := strings.TrimSpace(strings.TrimPrefix(topic, TopicPrefix))
	if id == "" {
		return "", false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return id, true
}

// ChannelName derives the ticket channel name from the reporter's username.
func ChannelName(username string) string {
	return channelNameStrip.ReplaceAllString(strings.ToLower(ChannelNamePrefix+username), "")
}
