package domain

import (
	"regexp"
	"strings"
)

// Platform represents the source platform for downloads
type Platform string

const (
	PlatformYouTube    Platform = "youtube"
	PlatformTikTok     Platform = "tiktok"
	PlatformInstagram  Platform = "instagram"
	PlatformSoundCloud Platform = "soundcloud"
	PlatformTwitter    Platform = "twitter" // X/Twitter
	PlatformFacebook   Platform = "facebook"

	// PlatformOverall is the synthetic aggregate used by the average rating endpoint.
	PlatformOverall Platform = "overall"
)

// DownloadMode selects a platform-specific endpoint variant
type DownloadMode string

const (
	ModeDefault DownloadMode = ""
	ModeAudio   DownloadMode = "audio"
	ModeVideo   DownloadMode = "video"
)

// PreviewStrategy describes how a platform's preview image is obtained
type PreviewStrategy int

const (
	// PreviewFromService uses the thumbnail reference returned by the service.
	PreviewFromService PreviewStrategy = iota
	// PreviewFromVideoID derives the preview from the extracted YouTube video id.
	PreviewFromVideoID
)

// OptionSpec describes one platform-specific request option
type OptionSpec struct {
	Name    string
	Default string
	Allowed []string
	Modes   []DownloadMode // modes the option applies to; empty means all
}

// PlatformDescriptor parameterizes the download workflow for one platform
type PlatformDescriptor struct {
	Platform     Platform
	DisplayName  string
	Prefix       string // endpoint root relative to the service base, e.g. "api/twitter"
	Modes        []DownloadMode
	DefaultMode  DownloadMode
	Options      []OptionSpec
	DefaultTitle string
	Preview      PreviewStrategy
	pattern      *regexp.Regexp
}

func hostPattern(hosts ...string) *regexp.Regexp {
	quoted := make([]string, len(hosts))
	for i, h := range hosts {
		quoted[i] = regexp.QuoteMeta(h)
	}
	return regexp.MustCompile(`^(https?://)?(www\.)?(` + strings.Join(quoted, "|") + `)/.+$`)
}

// AudioQualities are the bitrates accepted by the YouTube audio endpoint
var AudioQualities = []string{"320kbps", "256kbps", "128kbps"}

// IsAllowedQuality reports whether q is an accepted audio bitrate
func IsAllowedQuality(q string) bool {
	return contains(AudioQualities, q)
}

var descriptors = map[Platform]PlatformDescriptor{
	PlatformYouTube: {
		Platform:    PlatformYouTube,
		DisplayName: "YouTube",
		Prefix:      "youtube",
		Modes:       []DownloadMode{ModeAudio, ModeVideo},
		DefaultMode: ModeAudio,
		Options: []OptionSpec{
			{Name: "quality", Default: "320kbps", Allowed: AudioQualities, Modes: []DownloadMode{ModeAudio}},
		},
		DefaultTitle: "Untitled Video",
		Preview:      PreviewFromVideoID,
		pattern:      hostPattern("youtube.com", "youtu.be"),
	},
	PlatformTikTok: {
		Platform:     PlatformTikTok,
		DisplayName:  "TikTok",
		Prefix:       "tiktok",
		DefaultTitle: "TikTok Video",
		pattern:      hostPattern("tiktok.com", "vm.tiktok.com"),
	},
	PlatformInstagram: {
		Platform:     PlatformInstagram,
		DisplayName:  "Instagram",
		Prefix:       "instagram",
		DefaultTitle: "Instagram Video",
		pattern:      hostPattern("instagram.com"),
	},
	PlatformSoundCloud: {
		Platform:     PlatformSoundCloud,
		DisplayName:  "SoundCloud",
		Prefix:       "soundcloud",
		DefaultTitle: "SoundCloud Track",
		pattern:      hostPattern("soundcloud.com"),
	},
	PlatformTwitter: {
		Platform:     PlatformTwitter,
		DisplayName:  "Twitter",
		Prefix:       "api/twitter",
		DefaultTitle: "Twitter Video",
		pattern:      hostPattern("x.com", "twitter.com"),
	},
	PlatformFacebook: {
		Platform:     PlatformFacebook,
		DisplayName:  "Facebook",
		Prefix:       "facebook",
		DefaultTitle: "Facebook Video",
		pattern:      hostPattern("facebook.com", "fb.watch"),
	},
}

// Platforms lists the supported download platforms in display order
var Platforms = []Platform{
	PlatformYouTube,
	PlatformTikTok,
	PlatformInstagram,
	PlatformSoundCloud,
	PlatformTwitter,
	PlatformFacebook,
}

// Describe returns the descriptor for a platform
func Describe(platform Platform) (PlatformDescriptor, bool) {
	d, ok := descriptors[platform]
	return d, ok
}

// WithPrefix returns a copy of the descriptor using a different endpoint root
func (d PlatformDescriptor) WithPrefix(prefix string) PlatformDescriptor {
	d.Prefix = strings.Trim(prefix, "/")
	return d
}

// Matches reports whether the URL matches the platform's host pattern
func (d PlatformDescriptor) Matches(url string) bool {
	return d.pattern != nil && d.pattern.MatchString(url)
}

// SupportsMode checks if the platform accepts the given mode
func (d PlatformDescriptor) SupportsMode(mode DownloadMode) bool {
	if len(d.Modes) == 0 {
		return mode == ModeDefault
	}
	for _, m := range d.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// MetadataPath returns the phase-1 endpoint path for a mode
func (d PlatformDescriptor) MetadataPath(mode DownloadMode) string {
	path := d.Prefix + "/download"
	if mode != ModeDefault {
		path += "/" + string(mode)
	}
	return path
}

// FilePath returns the phase-2 endpoint path
func (d PlatformDescriptor) FilePath() string {
	return d.Prefix + "/download/file"
}

// DetectPlatform detects the platform from a URL
func DetectPlatform(url string) Platform {
	url = strings.TrimSpace(url)
	for _, p := range Platforms {
		if descriptors[p].Matches(url) {
			return p
		}
	}
	return ""
}

// ValidatePlatform checks if a platform is a supported download platform
func ValidatePlatform(platform Platform) bool {
	_, ok := descriptors[platform]
	return ok
}
