package core

import "runtime"

// -----------------------------------------------------------------------------
// Platform
// -----------------------------------------------------------------------------

// Platform identifies the operating system a run targets. It is carried
// explicitly through selection and path resolution rather than compiled in
// per-target.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
)

func (p Platform) String() string {
	return string(p)
}

func (p Platform) IsWindows() bool {
	return p == PlatformWindows
}

// CurrentPlatform maps the host OS onto a Platform. Unrecognized hosts are
// treated as linux.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformLinux
	}
}
