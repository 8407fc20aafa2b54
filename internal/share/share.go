// Package share builds the referral link and the per-network share URLs
// shown on the success page.
package share

import (
	"net/url"
	"strings"
)

// Text is the message prefilled into every network's composer.
const Text = "I just joined the LocalPlate waitlist! Get verified nutrition data from your favorite local restaurants. Join me:"

// Networks in the order the success page lists them.
var Networks = []string{"x", "facebook", "linkedin", "bluesky", "whatsapp", "threads", "instagram"}

// InstagramDM is opened for Instagram, which has no share intent; the user
// pastes Text plus the link into a direct message.
const InstagramDM = "https://www.instagram.com/direct/new/"

const (
	utmMedium   = "referral_button"
	utmCampaign = "waitlist_share"
)

// ReferralLink returns base with ref=code set in the query string.
func ReferralLink(base, code string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return base + "?ref=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("ref", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// Tagged returns link with the share UTMs for network applied.
func Tagged(link, network string) string {
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	q := u.Query()
	q.Set("utm_source", network)
	q.Set("utm_medium", utmMedium)
	q.Set("utm_campaign", utmCampaign)
	u.RawQuery = q.Encode()
	return u.String()
}

// Links returns a share URL per network for referralLink.
func Links(referralLink string) map[string]string {
	links := make(map[string]string, len(Networks))
	for _, network := range Networks {
		links[network] = URL(network, referralLink)
	}
	return links
}

// URL returns the share URL for a single network, or "" if unknown.
func URL(network, referralLink string) string {
	link := Tagged(referralLink, network)
	switch network {
	case "x":
		return "https://x.com/intent/post?text=" + escape(Text) + "&url=" + escape(link)
	case "facebook":
		return "https://www.facebook.com/sharer/sharer.php?u=" + escape(link)
	case "linkedin":
		return "https://www.linkedin.com/shareArticle/?url=" + escape(link)
	case "bluesky":
		return "https://bsky.app/intent/compose?text=" + escape(Text+" "+link)
	case "whatsapp":
		return "https://wa.me/?text=" + escape(Text+" "+link)
	case "threads":
		return "https://threads.net/intent/post?text=" + escape(Text) + "&url=" + escape(link)
	case "instagram":
		return InstagramDM
	}
	return ""
}

// InstagramText is what the user copies before opening InstagramDM.
func InstagramText(referralLink string) string {
	return Text + " " + Tagged(referralLink, "instagram")
}

// escape matches browser encodeURIComponent for spaces.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
