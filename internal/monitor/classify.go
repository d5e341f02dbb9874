package monitor

import (
	"strings"

	"penny_watch/internal/model"
)

// Verdict is the classifier's decision for an inbound message.
type Verdict int

// Classifier outcomes.
const (
	// Ignore marks messages from the client itself or carrying the command prefix.
	Ignore Verdict = iota
	// Passthrough marks eligible messages that are not from an automated source.
	Passthrough
	// Candidate marks messages whose embeds should be scanned.
	Candidate
)

func (v Verdict) String() string {
	switch v {
	case Ignore:
		return "ignore"
	case Passthrough:
		return "passthrough"
	case Candidate:
		return "candidate"
	default:
		return "unknown"
	}
}

// Detector decides whether a message was relayed by an automated source.
type Detector interface {
	Automated(msg model.Message) bool
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func(msg model.Message) bool

// Automated calls f(msg).
func (f DetectorFunc) Automated(msg model.Message) bool {
	return f(msg)
}

// LegacyWebhookDetector flags messages carrying a webhook ID, or authored by
// a bot account with the legacy "0000" discriminator.
type LegacyWebhookDetector struct{}

// Automated implements Detector.
func (LegacyWebhookDetector) Automated(msg model.Message) bool {
	if msg.WebhookID != "" {
		return true
	}
	return msg.Author.Bot && msg.Author.Discriminator == "0000"
}

// Classify decides whether msg should be scanned for filters.
func Classify(msg model.Message, selfID, prefix string, d Detector) Verdict {
	if selfID != "" && msg.Author.ID == selfID {
		return Ignore
	}
	if prefix != "" && strings.HasPrefix(msg.Content, prefix) {
		return Ignore
	}
	if d != nil && d.Automated(msg) {
		return Candidate
	}
	return Passthrough
}
