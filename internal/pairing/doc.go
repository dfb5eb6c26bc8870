// Package pairing classifies scanned files into Motion Photo pairs.
//
// Files are bucketed by basename (case-sensitive, NFC-normalized) and
// extension role. Within a bucket the canonical image and video are chosen by
// extension priority with a path tie-break, so the same file set always
// yields the same pairs. Leftover same-role files are reported as alternates
// and their basenames as ambiguous. Buckets that lack either role are passed
// through whole as images-only or videos-only.
package pairing
