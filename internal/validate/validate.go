package validate

import (
	"fmt"
	"net/url"
	"strings"
)

// Text field length limits, shared by the API handlers and the /api/limits
// endpoint the shell validates against.
const (
	MaxUsernameLength = 50
	MaxTitleLength    = 500
	MaxLabelLength    = 100
	MaxVideoIDLength  = 20
	MaxVideoURLLength = 500
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func Username(s string) string { return checkLen(s, MaxUsernameLength, "username") }
func Title(s string) string    { return checkLen(s, MaxTitleLength, "title") }
func Label(s string) string    { return checkLen(s, MaxLabelLength, "hotcue label") }
func VideoID(s string) string  { return checkLen(s, MaxVideoIDLength, "videoId") }

// YouTubeURL checks that s is an http(s) URL on a YouTube host.
func YouTubeURL(s string) string {
	if msg := checkLen(s, MaxVideoURLLength, "youtubeUrl"); msg != "" {
		return msg
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "youtubeUrl must be a valid http(s) URL"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "youtu.be", "youtube-nocookie.com":
		return ""
	}
	return "youtubeUrl must point at YouTube"
}

// FieldLimits returns field names to max lengths for the /api/limits endpoint.
func FieldLimits() map[string]int {
	return map[string]int{
		"username":   MaxUsernameLength,
		"title":      MaxTitleLength,
		"label":      MaxLabelLength,
		"videoId":    MaxVideoIDLength,
		"youtubeUrl": MaxVideoURLLength,
	}
}
