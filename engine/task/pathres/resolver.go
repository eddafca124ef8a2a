// Package pathres converts path-typed input values into absolute paths. It
// never fails: a value that cannot be resolved passes through unchanged and
// the downstream handler validates it.
package pathres

import (
	"context"
	"path"
	"strings"

	"github.com/taskweave/taskweave/engine/core"
	"github.com/taskweave/taskweave/pkg/logger"
)

// RootResolver maps a relative input value to a rooted path for a given
// host type. An empty return means the resolver does not handle the value.
type RootResolver interface {
	HostType() string
	GetRootedPath(ctx context.Context, raw string) string
}

// Resolver resolves raw input strings for one target platform and host
// type. Resolution is stateless; the same value always resolves the same
// way for a given Resolver.
type Resolver struct {
	platform  core.Platform
	hostType  string
	resolvers []RootResolver
}

// New builds a Resolver. Registered root resolvers are filtered down to
// those matching hostType and consulted in registration order.
func New(platform core.Platform, hostType string, resolvers ...RootResolver) *Resolver {
	matching := make([]RootResolver, 0, len(resolvers))
	for _, resolver := range resolvers {
		if strings.EqualFold(strings.TrimSpace(resolver.HostType()), strings.TrimSpace(hostType)) {
			matching = append(matching, resolver)
		}
	}
	return &Resolver{
		platform:  platform,
		hostType:  hostType,
		resolvers: matching,
	}
}

// Resolve turns raw into an absolute path when it can: already-rooted values
// are canonicalized, everything else is offered to the root resolvers in
// order, and the first rooted answer wins. With no answer the raw value is
// returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, raw string) string {
	value := raw
	if r.platform.IsWindows() {
		value = stripSurroundingQuotes(value)
	}
	if value != "" && !containsInvalidPathChars(value, r.platform) && isRooted(value, r.platform) {
		canonical, err := canonicalize(value, r.platform)
		if err != nil {
			logger.FromContext(ctx).Warn("failed to canonicalize rooted path, keeping raw value",
				"value", raw,
				"error", err,
			)
			return raw
		}
		return canonical
	}
	for _, resolver := range r.resolvers {
		rooted := resolver.GetRootedPath(ctx, value)
		if rooted != "" && isRooted(rooted, r.platform) {
			return rooted
		}
	}
	return raw
}

// stripSurroundingQuotes removes one pair of surrounding double quotes.
func stripSurroundingQuotes(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}

func containsInvalidPathChars(value string, platform core.Platform) bool {
	if strings.ContainsRune(value, 0) {
		return true
	}
	if !platform.IsWindows() {
		return false
	}
	body := value
	if hasDrivePrefix(value) {
		body = value[2:]
	}
	return strings.ContainsAny(body, `<>|?*":`)
}

func hasDrivePrefix(value string) bool {
	if len(value) < 2 || value[1] != ':' {
		return false
	}
	drive := value[0]
	return (drive >= 'a' && drive <= 'z') || (drive >= 'A' && drive <= 'Z')
}

func isRooted(value string, platform core.Platform) bool {
	if platform.IsWindows() {
		return hasDrivePrefix(value) ||
			strings.HasPrefix(value, `\\`) ||
			strings.HasPrefix(value, `\`) ||
			strings.HasPrefix(value, "/")
	}
	return strings.HasPrefix(value, "/")
}

// canonicalize resolves `.`/`..` segments and normalizes separators for the
// target platform.
func canonicalize(value string, platform core.Platform) (string, error) {
	if !platform.IsWindows() {
		return path.Clean(value), nil
	}
	return canonicalizeWindows(value)
}
