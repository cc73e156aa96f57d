package models

import "strings"

// Channel identifies a paid marketing channel. Channel values are normalized
// to lower case so CSV exports with arbitrary casing compare equal.
type Channel string

const (
	ChannelFacebook Channel = "facebook"
	ChannelGoogle   Channel = "google"
	ChannelTikTok   Channel = "tiktok"

	// ChannelAll marks rows aggregated across every channel.
	ChannelAll Channel = "all"
)

// Channels lists the supported ad channels in display order.
func Channels() []Channel {
	return []Channel{ChannelFacebook, ChannelGoogle, ChannelTikTok}
}

// ParseChannel normalizes a raw channel value from a CSV cell.
// The second return value is false for channels the dashboard does not know.
func ParseChannel(raw string) (Channel, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "facebook", "fb", "meta":
		return ChannelFacebook, true
	case "google", "google ads", "google_ads":
		return ChannelGoogle, true
	case "tiktok", "tik tok", "tik_tok":
		return ChannelTikTok, true
	}
	return "", false
}

// Title returns the channel name capitalized for report output.
func (c Channel) Title() string {
	switch c {
	case ChannelFacebook:
		return "Facebook"
	case ChannelGoogle:
		return "Google"
	case ChannelTikTok:
		return "TikTok"
	case ChannelAll:
		return "All Channels"
	}
	return string(c)
}
