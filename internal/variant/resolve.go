package variant

import (
	"fmt"
	"slices"
	"strings"
)

// Order selects how resolved candidates are ranked by path depth.
type Order int

const (
	// ShallowFirst probes candidates with fewer path separators first.
	// This is the historical behavior of the generator.
	ShallowFirst Order = iota

	// DeepFirst probes the most nested (most specific) candidates first.
	DeepFirst
)

// String returns the configuration spelling of the order.
func (o Order) String() string {
	switch o {
	case ShallowFirst:
		return "shallow-first"
	case DeepFirst:
		return "deep-first"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder maps a configuration spelling back to an Order. The empty
// string selects ShallowFirst.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shallow-first", "shallow_first":
		return ShallowFirst, nil
	case "deep-first", "deep_first":
		return DeepFirst, nil
	default:
		return ShallowFirst, fmt.Errorf("unknown search order %q (valid: shallow-first, deep-first)", s)
	}
}

// Resolve returns the candidate directories for the variant, relative to the
// project root, in ShallowFirst order. Unparseable identifiers yield an
// empty list.
func Resolve(s string) []string {
	return ResolveWithOrder(s, ShallowFirst)
}

// ResolveWithOrder is Resolve with an explicit depth order.
func ResolveWithOrder(s string, order Order) []string {
	v, err := Parse(s)
	if err != nil {
		return []string{}
	}
	return v.Candidates(order)
}

// Candidates lists the candidate directories for an already parsed variant.
// The result has no duplicates and is stably sorted by separator count.
func (v Variant) Candidates(order Order) []string {
	buildType := v.BuildType
	var locations []string

	if v.HasFlavors() {
		flavorName := v.FlavorName()
		locations = append(locations,
			"src/"+flavorName+"/"+buildType,
			"src/"+buildType+"/"+flavorName,
			"src/"+flavorName,
			"src/"+buildType,
			"src/"+flavorName+Capitalize(buildType),
			"src/"+buildType,
		)
	} else {
		locations = append(locations, "src/"+buildType)
	}

	location := "src"
	for _, flavor := range v.Flavors() {
		location += "/" + flavor
		locations = append(locations,
			location,
			location+"/"+buildType,
			location+Capitalize(buildType),
		)
	}

	locations = firstUnique(locations)
	slices.SortStableFunc(locations, func(a, b string) int {
		da, db := depth(a), depth(b)
		if order == DeepFirst {
			return db - da
		}
		return da - db
	})
	return locations
}

// firstUnique drops repeated entries, keeping the first copy of each.
func firstUnique(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, s := range list {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func depth(path string) int {
	return strings.Count(path, "/")
}
