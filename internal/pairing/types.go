package pairing

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Role is the part a file plays in a Motion Photo.
type Role int

const (
	RoleOther Role = iota
	RoleImage
	RoleVideo
)

func (r Role) String() string {
	switch r {
	case RoleImage:
		return "image"
	case RoleVideo:
		return "video"
	default:
		return "other"
	}
}

var (
	// ImagePriority ranks still-image extensions, best first.
	ImagePriority = []string{".jpg", ".jpeg", ".heic", ".png"}
	// VideoPriority ranks motion-clip extensions, best first.
	VideoPriority = []string{".mov", ".mp4"}
)

var (
	imageExtensions = extensionSet(ImagePriority)
	videoExtensions = extensionSet(VideoPriority)
)

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[ext] = true
	}
	return set
}

// FileRef is an existing regular file seen by a scan.
type FileRef struct {
	Path string
	// Base is the file stem, NFC-normalized, compared case-sensitively.
	Base string
	// Ext is the lowercase extension including the dot, or "" when absent.
	Ext  string
	Size int64
}

// Name returns the final path element.
func (f FileRef) Name() string {
	return filepath.Base(f.Path)
}

// Role classifies the file by extension.
func (f FileRef) Role() Role {
	return RoleOf(f.Ext)
}

// RoleOf classifies a lowercase extension.
func RoleOf(ext string) Role {
	switch {
	case imageExtensions[ext]:
		return RoleImage
	case videoExtensions[ext]:
		return RoleVideo
	default:
		return RoleOther
	}
}

// NewFileRef derives the basename and extension for path.
func NewFileRef(path string, size int64) FileRef {
	stem, ext := SplitName(filepath.Base(path))
	return FileRef{Path: path, Base: stem, Ext: ext, Size: size}
}

// SplitName splits a file name into its NFC-normalized stem and lowercase
// extension. A leading dot does not start an extension (".hidden" has none).
func SplitName(name string) (string, string) {
	name = norm.NFC.String(name)
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return name, ""
	}
	return name[:idx], strings.ToLower(name[idx:])
}

// Bucket holds the same-basename candidates for each role.
type Bucket struct {
	Images []FileRef
	Videos []FileRef
}

// Pair is one image and one video sharing a basename.
type Pair struct {
	Base      string
	Image     FileRef
	Video     FileRef
	AltImages []FileRef
	AltVideos []FileRef
}

// Alternates returns the unchosen images followed by the unchosen videos.
func (p Pair) Alternates() []FileRef {
	if len(p.AltImages)+len(p.AltVideos) == 0 {
		return nil
	}
	out := make([]FileRef, 0, len(p.AltImages)+len(p.AltVideos))
	out = append(out, p.AltImages...)
	return append(out, p.AltVideos...)
}

// Classification is the outcome of grouping one scan.
type Classification struct {
	Pairs      []Pair
	ImagesOnly []FileRef
	VideosOnly []FileRef
	Others     []FileRef
	// Ambiguous maps a paired basename to its alternates.
	Ambiguous map[string][]FileRef
}
