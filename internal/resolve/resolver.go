// Package resolve maps a violation's severity to the recipients and
// channels that must be notified.
package resolve

import (
	"plantwatch/internal/models"
)

// Target is one recipient with the channels to use for a given severity
type Target struct {
	Recipient models.Recipient
	Channels  []models.Channel
}

// ChannelsFor returns the channel set for recipient r at severity sev.
// Warning routes to a single channel (SMS when opted, else the first
// opted channel); critical routes to every opted channel to maximize
// delivery probability. The critical set is always a superset of the
// warning set.
func ChannelsFor(r models.Recipient, sev models.Severity) []models.Channel {
	opted := r.OptedChannels()
	if len(opted) == 0 {
		return nil
	}
	if sev == models.SeverityCritical {
		return opted
	}

	if r.OptedIn(models.ChannelSMS) {
		return []models.Channel{models.ChannelSMS}
	}
	return opted[:1]
}

// Resolve returns the active recipients to notify for severity sev with
// their channel sets. An empty result is a normal outcome, not an error.
func Resolve(recipients []models.Recipient, sev models.Severity) []Target {
	var targets []Target
	for _, r := range recipients {
		if !r.Active {
			continue
		}
		channels := ChannelsFor(r, sev)
		if len(channels) == 0 {
			continue
		}
		targets = append(targets, Target{Recipient: r, Channels: channels})
	}
	return targets
}
