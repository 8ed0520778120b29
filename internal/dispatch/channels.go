package dispatch

import (
	"fmt"
	"os"
	"sort"

	"bonjourarcade/internal/config"
	"bonjourarcade/pkg/logx"
)

// ChannelType selects the delivery mechanism and payload shape.
type ChannelType string

const (
	TypeEmail      ChannelType = "email"
	TypeDiscord    ChannelType = "discord"
	TypeGoogleChat ChannelType = "googlechat"
	TypeTelegram   ChannelType = "telegram"
)

// ChannelSpec describes one named channel. Env names the environment
// variable holding the channel's endpoint or secret; the value itself is
// resolved at dispatch time and never stored. ChatID is only meaningful
// for Telegram channels, whose env variable holds a bot token rather
// than a webhook URL.
type ChannelSpec struct {
	Env    string      `json:"env"`
	Type   ChannelType `json:"type"`
	ChatID int64       `json:"chat_id,omitempty"`
}

// Channel pairs a human label with its spec.
type Channel struct {
	Label string
	Spec  ChannelSpec
}

// ChannelMap is an ordered list of channels. The on-disk document is a
// mapping, so labels are sorted at load time to keep dispatch order
// deterministic.
type ChannelMap []Channel

// EmailChannelLabel is the implicit label for the mailing-list channel
// when the channel map does not define one of type email.
const EmailChannelLabel = "ConvertKit Email"

// EmailSecretEnv names the default environment variable holding the
// email provider's API secret.
const EmailSecretEnv = "CONVERTKIT_API_SECRET"

// LoadChannelMap reads the channel map document (JSON or YAML). A
// missing file is a normal outcome — partial deployments run without
// webhooks — and yields an empty map. When no email channel is defined,
// the implicit mailing-list channel is prepended so the primary delivery
// always has a slot.
func LoadChannelMap(path string, log logx.Logger) (ChannelMap, error) {
	var raw map[string]ChannelSpec
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Warn("channel map file not found, webhooks disabled", logx.String("path", path))
		raw = map[string]ChannelSpec{}
	} else if err := config.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load channel map: %w", err)
	}

	labels := make([]string, 0, len(raw))
	hasEmail := false
	for label, spec := range raw {
		labels = append(labels, label)
		if spec.Type == TypeEmail {
			hasEmail = true
		}
	}
	sort.Strings(labels)

	cm := make(ChannelMap, 0, len(labels)+1)
	if !hasEmail {
		cm = append(cm, Channel{
			Label: EmailChannelLabel,
			Spec:  ChannelSpec{Env: EmailSecretEnv, Type: TypeEmail},
		})
	}
	for _, label := range labels {
		cm = append(cm, Channel{Label: label, Spec: raw[label]})
	}
	return cm, nil
}

// Filter restricts a dispatch to a subset of channels.
type Filter struct {
	// Label keeps only the channel with this label (empty keeps all).
	Label string
	// MailOnly keeps only email channels; WebhookOnly drops them.
	MailOnly    bool
	WebhookOnly bool
}

// Apply returns the channels selected by the filter, preserving order.
func (f Filter) Apply(cm ChannelMap) ChannelMap {
	out := make(ChannelMap, 0, len(cm))
	for _, ch := range cm {
		if f.Label != "" && ch.Label != f.Label {
			continue
		}
		if f.MailOnly && ch.Spec.Type != TypeEmail {
			continue
		}
		if f.WebhookOnly && ch.Spec.Type == TypeEmail {
			continue
		}
		out = append(out, ch)
	}
	return out
}
