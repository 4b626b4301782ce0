package domain

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

var youTubeIDPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// YouTubePreviewTemplate builds the preview image for a YouTube video id
const YouTubePreviewTemplate = "https://img.youtube.com/vi/%s/hqdefault.jpg"

// ExtractYouTubeID returns the 11-character video id from the common URL
// shapes (watch?v=, youtu.be/, embed/, v/), or "" when none is present.
func ExtractYouTubeID(rawURL string) string {
	m := youTubeIDPattern.FindStringSubmatch(rawURL)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Validate applies the platform's syntactic acceptance test. It performs no
// I/O; a URL that passes may still be rejected by the service.
func Validate(platform Platform, rawURL string) error {
	desc, ok := Describe(platform)
	if !ok {
		return fmt.Errorf("unsupported platform %q: %w", platform, ErrInvalidURL)
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return &ValidationError{
			Platform: platform,
			Err:      ErrMissingURL,
			Message:  fmt.Sprintf("Please enter a %s URL.", desc.DisplayName),
		}
	}

	invalid := &ValidationError{
		Platform: platform,
		Err:      ErrInvalidURL,
		Message:  fmt.Sprintf("Invalid %s URL. Please provide a valid URL.", desc.DisplayName),
	}
	if !desc.Matches(rawURL) {
		return invalid
	}
	if desc.Preview == PreviewFromVideoID && ExtractYouTubeID(rawURL) == "" {
		return invalid
	}
	return nil
}

// IsValid reports whether Validate accepts the URL
func IsValid(platform Platform, rawURL string) bool {
	return Validate(platform, rawURL) == nil
}

// ResolvePreviewURL normalizes the preview reference for a result. YouTube
// previews come from the video id; other platforms use the service thumbnail,
// joined with baseURL when it is server-relative.
func ResolvePreviewURL(desc PlatformDescriptor, baseURL, sourceURL, thumbnail string) *string {
	if desc.Preview == PreviewFromVideoID {
		if id := ExtractYouTubeID(sourceURL); id != "" {
			preview := fmt.Sprintf(YouTubePreviewTemplate, id)
			return &preview
		}
	}

	thumbnail = strings.TrimSpace(thumbnail)
	if thumbnail == "" {
		return nil
	}

	ref, err := url.Parse(thumbnail)
	if err != nil {
		return nil
	}
	if ref.IsAbs() {
		return &thumbnail
	}
	if strings.HasPrefix(thumbnail, "//") {
		resolved := "https:" + thumbnail
		return &resolved
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || !base.IsAbs() {
		return &thumbnail
	}
	resolved := base.ResolveReference(&url.URL{
		Path:     strings.TrimLeft(ref.Path, "/"),
		RawQuery: ref.RawQuery,
	}).String()
	return &resolved
}

// FilenameFromLocator derives the save-as name from the last path segment of
// a file locator.
func FilenameFromLocator(locator string) string {
	locator = strings.ReplaceAll(strings.TrimSpace(locator), "\\", "/")
	name := path.Base(locator)
	switch name {
	case "", ".", "..", "/":
		return "download"
	}
	return name
}
