// Package variant turns a build variant identifier into the ordered list of
// source directories that may hold a per-variant services file.
//
// A variant identifier encodes an optional lowercase flavor prefix, zero or
// more capitalized flavor segments and a trailing build type, with no
// separators ("freeStagingDebug"). The host's directory form
// ("freeStaging/debug") is accepted as well.
package variant

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnparseable is returned by Parse for identifiers that carry no build type.
var ErrUnparseable = errors.New("unparseable variant identifier")

// Variant is the tokenized form of a variant identifier.
type Variant struct {
	// FlavorPrefix is the leading non-uppercase run, as written. Empty when
	// the identifier starts with an uppercase rune or has no flavors.
	FlavorPrefix string

	// FlavorSegments are the capitalized segments between the prefix and the
	// build type, as written ("Staging").
	FlavorSegments []string

	// BuildType is the trailing build type, lowercased in camel form and
	// verbatim in directory form.
	BuildType string
}

// FlavorName returns the combined flavor name with its original casing,
// e.g. "freeStaging".
func (v Variant) FlavorName() string {
	return v.FlavorPrefix + strings.Join(v.FlavorSegments, "")
}

// Flavors returns every flavor dimension in order, lowercased: the prefix
// first (when present) followed by each segment.
func (v Variant) Flavors() []string {
	out := make([]string, 0, len(v.FlavorSegments)+1)
	if v.FlavorPrefix != "" {
		out = append(out, strings.ToLower(v.FlavorPrefix))
	}
	for _, seg := range v.FlavorSegments {
		out = append(out, strings.ToLower(seg))
	}
	return out
}

// HasFlavors reports whether the variant names at least one flavor.
func (v Variant) HasFlavors() bool {
	return v.FlavorPrefix != "" || len(v.FlavorSegments) > 0
}

// Parse tokenizes a variant identifier.
func Parse(s string) (Variant, error) {
	if s == "" {
		return Variant{}, ErrUnparseable
	}

	if strings.Contains(s, "/") {
		return parseDirForm(s)
	}

	prefix, segments := split(s)
	if len(segments) == 0 {
		// No capitalized segment: the whole identifier is the build type.
		return Variant{BuildType: prefix}, nil
	}

	last := segments[len(segments)-1]
	v := Variant{
		FlavorPrefix:   prefix,
		FlavorSegments: segments[:len(segments)-1],
		BuildType:      strings.ToLower(last),
	}
	if len(v.FlavorSegments) == 0 {
		v.FlavorSegments = nil
	}
	return v, nil
}

// parseDirForm handles "flavorName/buildType".
func parseDirForm(s string) (Variant, error) {
	flavor, buildType, _ := strings.Cut(s, "/")
	if flavor == "" || buildType == "" || strings.Contains(buildType, "/") {
		return Variant{}, ErrUnparseable
	}
	prefix, segments := split(flavor)
	return Variant{
		FlavorPrefix:   prefix,
		FlavorSegments: segments,
		BuildType:      buildType,
	}, nil
}

// split returns the leading non-uppercase run of s and every following
// segment that starts with an uppercase rune and runs up to the next one.
func split(s string) (prefix string, segments []string) {
	i := strings.IndexFunc(s, unicode.IsUpper)
	if i < 0 {
		return s, nil
	}
	prefix, rest := s[:i], s[i:]
	for rest != "" {
		_, size := utf8.DecodeRuneInString(rest)
		j := strings.IndexFunc(rest[size:], unicode.IsUpper)
		if j < 0 {
			segments = append(segments, rest)
			break
		}
		segments = append(segments, rest[:size+j])
		rest = rest[size+j:]
	}
	return prefix, segments
}

// Capitalize uppercases the first rune of s and lowercases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
