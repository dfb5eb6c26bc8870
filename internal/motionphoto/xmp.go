package motionphoto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

const (
	markerSOI  = 0xD8
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1

	maxSegmentPayload = 0xFFFF - 2
)

var xmpNamespace = []byte("http://ns.adobe.com/xap/1.0/\x00")

// ErrNotJPEG is returned when the photo does not start with a JPEG SOI marker.
var ErrNotJPEG = errors.New("not a jpeg stream")

// Metadata is the GCamera micro video description embedded in the photo.
type Metadata struct {
	Offset                  int64
	PresentationTimestampUs int64
}

const gcameraNamespace = "http://ns.google.com/photos/1.0/camera/"

func writeDescription(b *bytes.Buffer, meta Metadata, indent string) {
	b.WriteString(indent + "<rdf:Description rdf:about=\"\"\n")
	b.WriteString(indent + "    xmlns:GCamera=\"" + gcameraNamespace + "\"\n")
	b.WriteString(indent + "    GCamera:MicroVideo=\"1\"\n")
	b.WriteString(indent + "    GCamera:MicroVideoVersion=\"1\"\n")
	fmt.Fprintf(b, "%s    GCamera:MicroVideoOffset=\"%d\"\n", indent, meta.Offset)
	fmt.Fprintf(b, "%s    GCamera:MicroVideoPresentationTimestampUs=\"%d\"/>\n", indent, meta.PresentationTimestampUs)
}

func buildXMP(meta Metadata) []byte {
	var b bytes.Buffer
	b.WriteString("<?xpacket begin=\"\xef\xbb\xbf\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>\n")
	b.WriteString("<x:xmpmeta xmlns:x=\"adobe:ns:meta/\">\n")
	b.WriteString(" <rdf:RDF xmlns:rdf=\"http://www.w3.org/1999/02/22-rdf-syntax-ns#\">\n")
	writeDescription(&b, meta, "  ")
	b.WriteString(" </rdf:RDF>\n")
	b.WriteString("</x:xmpmeta>\n")
	b.WriteString("<?xpacket end=\"w\"?>")
	return b.Bytes()
}

var (
	rdfOpenTag        = regexp.MustCompile(`<rdf:RDF\b[^>]*>`)
	microVideoAttr    = regexp.MustCompile(`\s+GCamera:MicroVideo[A-Za-z]*\s*=\s*(?:"[^"]*"|'[^']*')`)
	microVideoElement = regexp.MustCompile(`\s*<GCamera:MicroVideo[A-Za-z]*>[^<]*</GCamera:MicroVideo[A-Za-z]*>`)
)

// mergeXMP adds a GCamera description to an existing packet, keeping every
// other tag. Stale MicroVideo fields are removed first so the packet carries
// exactly one offset. It reports false when the packet has no rdf:RDF
// element to extend.
func mergeXMP(packet []byte, meta Metadata) ([]byte, bool) {
	cleaned := microVideoElement.ReplaceAll(packet, nil)
	cleaned = microVideoAttr.ReplaceAll(cleaned, nil)
	loc := rdfOpenTag.FindIndex(cleaned)
	if loc == nil || bytes.HasSuffix(cleaned[loc[0]:loc[1]], []byte("/>")) {
		return nil, false
	}
	var desc bytes.Buffer
	desc.WriteByte('\n')
	writeDescription(&desc, meta, "  ")
	out := make([]byte, 0, len(cleaned)+desc.Len())
	out = append(out, cleaned[:loc[1]]...)
	out = append(out, bytes.TrimSuffix(desc.Bytes(), []byte("\n"))...)
	out = append(out, cleaned[loc[1]:]...)
	return out, true
}

type segment struct {
	start, end int
	marker     byte
	xmp        bool
}

// headerSegments lists the APPn segments ahead of the image data and the
// offset where they stop.
func headerSegments(jpeg []byte) ([]segment, int, error) {
	var segs []segment
	pos := 2
	for pos+4 <= len(jpeg) && jpeg[pos] == 0xFF {
		marker := jpeg[pos+1]
		if marker == 0xFF {
			// fill byte
			pos++
			continue
		}
		if marker == markerSOS || marker < markerAPP0 || marker > 0xEF {
			break
		}
		length := int(binary.BigEndian.Uint16(jpeg[pos+2:]))
		end := pos + 2 + length
		if length < 2 || end > len(jpeg) {
			return nil, 0, fmt.Errorf("truncated segment at offset %d", pos)
		}
		xmp := marker == markerAPP1 && bytes.HasPrefix(jpeg[pos+4:end], xmpNamespace)
		segs = append(segs, segment{start: pos, end: end, marker: marker, xmp: xmp})
		pos = end
	}
	return segs, pos, nil
}

func app1Segment(packet []byte) ([]byte, bool) {
	payload := append(append([]byte{}, xmpNamespace...), packet...)
	if len(payload) > maxSegmentPayload {
		return nil, false
	}
	seg := make([]byte, 4, 4+len(payload))
	seg[0] = 0xFF
	seg[1] = markerAPP1
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...), true
}

// injectXMP returns jpeg with a GCamera description in its XMP segment. An
// existing packet is extended rather than replaced; the second return
// value reports that an existing packet could not be merged and was
// dropped. A new segment follows the leading APP0/APP1 (JFIF, EXIF)
// segments.
func injectXMP(jpeg []byte, meta Metadata) ([]byte, bool, error) {
	if len(jpeg) < 4 || jpeg[0] != 0xFF || jpeg[1] != markerSOI {
		return nil, false, ErrNotJPEG
	}
	segs, pos, err := headerSegments(jpeg)
	if err != nil {
		return nil, false, err
	}

	var existing []byte
	for _, seg := range segs {
		if seg.xmp {
			existing = jpeg[seg.start+4+len(xmpNamespace) : seg.end]
			break
		}
	}

	dropped := false
	var xmpSegment []byte
	if existing != nil {
		if merged, ok := mergeXMP(existing, meta); ok {
			xmpSegment, ok = app1Segment(merged)
			dropped = !ok
		} else {
			dropped = true
		}
	}
	if xmpSegment == nil {
		var ok bool
		if xmpSegment, ok = app1Segment(buildXMP(meta)); !ok {
			return nil, false, fmt.Errorf("xmp packet too large")
		}
	}

	out := make([]byte, 0, len(jpeg)+len(xmpSegment))
	out = append(out, jpeg[:2]...)
	inserted := false
	for _, seg := range segs {
		switch {
		case seg.xmp:
		case seg.marker == markerAPP0 || seg.marker == markerAPP1:
			out = append(out, jpeg[seg.start:seg.end]...)
		default:
			if !inserted {
				out = append(out, xmpSegment...)
				inserted = true
			}
			out = append(out, jpeg[seg.start:seg.end]...)
		}
	}
	if !inserted {
		out = append(out, xmpSegment...)
	}
	out = append(out, jpeg[pos:]...)
	return out, dropped, nil
}

var (
	offsetPattern    = regexp.MustCompile(`GCamera:MicroVideoOffset(?:=["']|>)(\d+)`)
	timestampPattern = regexp.MustCompile(`GCamera:MicroVideoPresentationTimestampUs(?:=["']|>)(\d+)`)
	microVideoFlag   = regexp.MustCompile(`GCamera:MicroVideo(?:=["']|>)1`)
)

// ParseMetadata extracts the micro video description from a Motion Photo.
// It reports false when the data carries no GCamera MicroVideo marker.
func ParseMetadata(data []byte) (Metadata, bool) {
	if !microVideoFlag.Match(data) {
		return Metadata{}, false
	}
	m := offsetPattern.FindSubmatch(data)
	if m == nil {
		return Metadata{}, false
	}
	offset, err := strconv.ParseInt(string(m[1]), 10, 64)
	if err != nil {
		return Metadata{}, false
	}
	meta := Metadata{Offset: offset}
	if ts := timestampPattern.FindSubmatch(data); ts != nil {
		meta.PresentationTimestampUs, _ = strconv.ParseInt(string(ts[1]), 10, 64)
	}
	return meta, true
}
