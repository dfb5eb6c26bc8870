package pairing

import (
	"sort"

	"motionmux/internal/scan"
)

// Group partitions scanned entries into per-basename buckets of images and
// videos. Files with any other extension are returned as others. Directories
// and non-regular entries are skipped.
func Group(entries []scan.Entry) (map[string]*Bucket, []FileRef) {
	buckets := make(map[string]*Bucket)
	var others []FileRef
	for _, entry := range entries {
		if !entry.Regular {
			continue
		}
		ref := NewFileRef(entry.Path, entry.Size)
		role := ref.Role()
		if role == RoleOther {
			others = append(others, ref)
			continue
		}
		bucket, ok := buckets[ref.Base]
		if !ok {
			bucket = &Bucket{}
			buckets[ref.Base] = bucket
		}
		if role == RoleImage {
			bucket.Images = append(bucket.Images, ref)
		} else {
			bucket.Videos = append(bucket.Videos, ref)
		}
	}
	return buckets, others
}

// Choose picks the canonical member of a same-role bucket. Files are ordered
// by extension priority (unlisted extensions last) and then by full path, so
// the choice is reproducible. The first file is chosen and the remainder,
// in that order, are the alternates.
func Choose(files []FileRef, priority []string) (*FileRef, []FileRef) {
	if len(files) == 0 {
		return nil, nil
	}
	rank := make(map[string]int, len(priority))
	for i, ext := range priority {
		rank[ext] = i
	}
	rankOf := func(ext string) int {
		if r, ok := rank[ext]; ok {
			return r
		}
		return len(priority)
	}

	sorted := make([]FileRef, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rankOf(sorted[i].Ext), rankOf(sorted[j].Ext)
		if ri != rj {
			return ri < rj
		}
		return sorted[i].Path < sorted[j].Path
	})

	chosen := sorted[0]
	var alternates []FileRef
	if len(sorted) > 1 {
		alternates = sorted[1:]
	}
	return &chosen, alternates
}

// BuildPairs turns buckets into pairs and unpaired lists. Buckets are visited
// in basename order. A bucket with only images contributes every image to
// ImagesOnly; likewise for videos.
func BuildPairs(buckets map[string]*Bucket) Classification {
	bases := make([]string, 0, len(buckets))
	for base := range buckets {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	result := Classification{Ambiguous: make(map[string][]FileRef)}
	for _, base := range bases {
		bucket := buckets[base]
		image, altImages := Choose(bucket.Images, ImagePriority)
		video, altVideos := Choose(bucket.Videos, VideoPriority)
		switch {
		case image != nil && video != nil:
			pair := Pair{
				Base:      base,
				Image:     *image,
				Video:     *video,
				AltImages: altImages,
				AltVideos: altVideos,
			}
			result.Pairs = append(result.Pairs, pair)
			if alts := pair.Alternates(); len(alts) > 0 {
				result.Ambiguous[base] = alts
			}
		case image != nil:
			result.ImagesOnly = append(result.ImagesOnly, bucket.Images...)
		case video != nil:
			result.VideosOnly = append(result.VideosOnly, bucket.Videos...)
		}
	}
	return result
}

// Classify groups entries and builds pairs in one step.
func Classify(entries []scan.Entry) Classification {
	buckets, others := Group(entries)
	result := BuildPairs(buckets)
	result.Others = others
	return result
}
