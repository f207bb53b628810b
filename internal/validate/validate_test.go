package validate

import (
	"strings"
	"testing"
)

func TestCheckLen_WithinLimit(t *testing.T) {
	if msg := Username("ada"); msg != "" {
		t.Errorf("expected no error, got %q", msg)
	}
	if msg := Label(strings.Repeat("x", MaxLabelLength)); msg != "" {
		t.Errorf("expected no error at the limit, got %q", msg)
	}
}

func TestCheckLen_OverLimit(t *testing.T) {
	msg := Label(strings.Repeat("x", MaxLabelLength+1))
	if msg == "" {
		t.Fatal("expected error over the limit")
	}
	if !strings.Contains(msg, "hotcue label") {
		t.Errorf("message should name the field: %q", msg)
	}
}

func TestYouTubeURL_Valid(t *testing.T) {
	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"http://m.youtube.com/watch?v=abc",
		"https://www.youtube-nocookie.com/embed/abc",
	}
	for _, u := range valid {
		if msg := YouTubeURL(u); msg != "" {
			t.Errorf("expected %q to validate, got %q", u, msg)
		}
	}
}

func TestYouTubeURL_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"not a url",
		"ftp://youtube.com/watch",
		"https://vimeo.com/12345",
		"https://" + strings.Repeat("a", MaxVideoURLLength) + ".youtube.com/",
	}
	for _, u := range invalid {
		if msg := YouTubeURL(u); msg == "" {
			t.Errorf("expected %q to be rejected", u)
		}
	}
}

func TestFieldLimits_CoversEveryField(t *testing.T) {
	limits := FieldLimits()
	for _, field := range []string{"username", "title", "label", "videoId", "youtubeUrl"} {
		if limits[field] == 0 {
			t.Errorf("missing limit for %s", field)
		}
	}
}
