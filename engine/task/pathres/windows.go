package pathres

import (
	"fmt"
	"strings"
)

// canonicalizeWindows normalizes separators to backslashes and resolves
// `.`/`..` segments. The platform is data here, not a build target, so this
// runs on any host.
func canonicalizeWindows(value string) (string, error) {
	normalized := strings.ReplaceAll(value, "/", `\`)
	volume, body, err := splitWindowsVolume(normalized)
	if err != nil {
		return "", err
	}
	segments := strings.Split(body, `\`)
	cleaned := make([]string, 0, len(segments))
	for _, segment := range segments {
		switch segment {
		case "", ".":
		case "..":
			if len(cleaned) == 0 {
				return "", fmt.Errorf("path %q escapes its root", value)
			}
			cleaned = cleaned[:len(cleaned)-1]
		default:
			cleaned = append(cleaned, segment)
		}
	}
	return volume + `\` + strings.Join(cleaned, `\`), nil
}

// splitWindowsVolume separates the drive or UNC prefix from the rest of the
// path. Rooted paths without a volume (leading backslash) keep an empty
// volume.
func splitWindowsVolume(value string) (volume, body string, err error) {
	if hasDrivePrefix(value) {
		return strings.ToUpper(value[:2]), value[2:], nil
	}
	if strings.HasPrefix(value, `\\`) {
		trimmed := strings.TrimPrefix(value, `\\`)
		parts := strings.SplitN(trimmed, `\`, 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("malformed UNC path %q", value)
		}
		volume = `\\` + parts[0] + `\` + parts[1]
		if len(parts) == 3 {
			return volume, `\` + parts[2], nil
		}
		return volume, "", nil
	}
	return "", value, nil
}
