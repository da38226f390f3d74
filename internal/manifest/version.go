package manifest

import (
	"sort"
	"strconv"
	"strings"
)

// VersionAndChannel identifies one manifest of a package.
type VersionAndChannel struct {
	Version string
	Channel string
}

type versionPart struct {
	num   uint64
	other string
}

func parseVersion(v string) []versionPart {
	var parts []versionPart
	for _, s := range strings.Split(strings.TrimSpace(v), ".") {
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		n, _ := strconv.ParseUint(s[:i], 10, 64)
		parts = append(parts, versionPart{num: n, other: strings.TrimSpace(s[i:])})
	}
	// Trailing zero parts do not change ordering: 1.0 == 1.0.0.
	for len(parts) > 0 && parts[len(parts)-1] == (versionPart{}) {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// CompareVersions orders package version strings part by part. Each
// dot-separated part compares by its leading number, then by its suffix,
// where a part without a suffix sorts after one with a suffix (1.0 > 1.0-beta).
// It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	pa, pb := parseVersion(a), parseVersion(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y versionPart
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		if x.num != y.num {
			if x.num < y.num {
				return -1
			}
			return 1
		}
		if x.other == y.other {
			continue
		}
		switch {
		case x.other == "":
			return 1
		case y.other == "":
			return -1
		}
		if c := strings.Compare(strings.ToLower(x.other), strings.ToLower(y.other)); c != 0 {
			return c
		}
		return strings.Compare(x.other, y.other)
	}
	return 0
}

// SortDescending orders versions newest first; channels break ties.
func SortDescending(vs []VersionAndChannel) {
	sort.SliceStable(vs, func(i, j int) bool {
		if c := CompareVersions(vs[i].Version, vs[j].Version); c != 0 {
			return c > 0
		}
		return vs[i].Channel < vs[j].Channel
	})
}
