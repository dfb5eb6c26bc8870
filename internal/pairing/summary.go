package pairing

import (
	"sort"

	"motionmux/internal/scan"
)

// ExtensionCount is the number of scanned files with one extension.
type ExtensionCount struct {
	Ext   string
	Count int
}

// Summary aggregates the counts shown before a migration.
type Summary struct {
	TotalFiles  int
	ByExtension []ExtensionCount
	Pairs       int
	ImagesOnly  int
	VideosOnly  int
	Others      int
	Ambiguous   int
}

// Summarize counts regular files by extension and the classification buckets.
func Summarize(entries []scan.Entry, c Classification) Summary {
	counts := make(map[string]int)
	total := 0
	for _, entry := range entries {
		if !entry.Regular {
			continue
		}
		total++
		_, ext := SplitName(entry.Name)
		counts[ext]++
	}
	byExt := make([]ExtensionCount, 0, len(counts))
	for ext, n := range counts {
		byExt = append(byExt, ExtensionCount{Ext: ext, Count: n})
	}
	sort.Slice(byExt, func(i, j int) bool { return byExt[i].Ext < byExt[j].Ext })

	return Summary{
		TotalFiles:  total,
		ByExtension: byExt,
		Pairs:       len(c.Pairs),
		ImagesOnly:  len(c.ImagesOnly),
		VideosOnly:  len(c.VideosOnly),
		Others:      len(c.Others),
		Ambiguous:   len(c.Ambiguous),
	}
}

// AmbiguousBases returns the ambiguous basenames in sorted order.
func (c Classification) AmbiguousBases() []string {
	bases := make([]string, 0, len(c.Ambiguous))
	for base := range c.Ambiguous {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	return bases
}

// SortedByPath returns a path-ordered copy of refs.
func SortedByPath(refs []FileRef) []FileRef {
	out := make([]FileRef, len(refs))
	copy(out, refs)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
