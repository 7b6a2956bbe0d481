package domain

import (
	"runtime"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Platform identifies a target operating system and architecture, e.g. "linux-64".
type Platform string

const (
	PlatformLinux64      Platform = "linux-64"
	PlatformLinuxAarch64 Platform = "linux-aarch64"
	PlatformOSX64        Platform = "osx-64"
	PlatformOSXArm64     Platform = "osx-arm64"
	PlatformWin64        Platform = "win-64"

	// PlatformNoArch is the index subdirectory holding platform independent packages.
	// It is never a manifest platform.
	PlatformNoArch Platform = "noarch"
)

var supportedPlatforms = []Platform{
	PlatformLinux64,
	PlatformLinuxAarch64,
	PlatformOSX64,
	PlatformOSXArm64,
	PlatformWin64,
}

// SupportedPlatforms returns the platforms a manifest may declare, sorted.
func SupportedPlatforms() []Platform {
	return slices.Clone(supportedPlatforms)
}

// ParsePlatform validates a platform identifier.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.TrimSpace(s))
	if !slices.Contains(supportedPlatforms, p) {
		return "", zerr.With(zerr.Wrap(ErrUnsupportedPlatform, ""), "platform", s)
	}
	return p, nil
}

// OS returns the operating system family of the platform: "linux", "osx" or "win".
func (p Platform) OS() string {
	os, _, _ := strings.Cut(string(p), "-")
	return os
}

// String returns the platform identifier.
func (p Platform) String() string {
	return string(p)
}

// CurrentPlatform maps the running GOOS/GOARCH onto a platform.
func CurrentPlatform() (Platform, error) {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}

// PlatformFor maps a GOOS/GOARCH pair onto a platform.
func PlatformFor(goos, goarch string) (Platform, error) {
	var os string
	switch goos {
	case "linux":
		os = "linux"
	case "darwin":
		os = "osx"
	case "windows":
		os = "win"
	default:
		return "", zerr.With(zerr.Wrap(ErrUnsupportedPlatform, ""), "goos", goos)
	}

	var arch string
	switch goarch {
	case "amd64":
		arch = "64"
	case "arm64":
		arch = "aarch64"
		if os == "osx" {
			arch = "arm64"
		}
	default:
		return "", zerr.With(zerr.Wrap(ErrUnsupportedPlatform, ""), "goarch", goarch)
	}
	return ParsePlatform(os + "-" + arch)
}
