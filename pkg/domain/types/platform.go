package types

import "fmt"

// Platform is the client surface a knowledge entry or a question targets
type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformMobile Platform = "mobile"
	// PlatformAll marks an entry that applies to every platform. It is never a valid
	// platform for a question.
	PlatformAll Platform = "all"
)

// AllPlatforms returns every platform an entry may be tagged with
func AllPlatforms() []Platform {
	return []Platform{PlatformWeb, PlatformMobile, PlatformAll}
}

// IsValid checks if the platform is a valid entry platform
func (p Platform) IsValid() bool {
	switch p {
	case PlatformWeb, PlatformMobile, PlatformAll:
		return true
	default:
		return false
	}
}

// IsClient reports whether p names a concrete client platform (web or mobile)
func (p Platform) IsClient() bool {
	return p == PlatformWeb || p == PlatformMobile
}

// Matches reports whether an entry tagged with p is visible on the client platform
func (p Platform) Matches(client Platform) bool {
	return p == PlatformAll || p == client
}

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}

// ParsePlatform parses a string into a Platform
func ParsePlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid platform: %s", s)
	}
	return p, nil
}

// ParseClientPlatform parses a string into a client Platform (web or mobile)
func ParseClientPlatform(s string) (Platform, error) {
	p := Platform(s)
	if !p.IsClient() {
		return "", fmt.Errorf("invalid client platform: %s", s)
	}
	return p, nil
}
