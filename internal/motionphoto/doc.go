// Package motionphoto writes Google Motion Photos (MicroVideo v1).
//
// A Motion Photo is a JPEG whose XMP carries GCamera:MicroVideo tags,
// followed directly by the bytes of an MP4/MOV clip. MicroVideoOffset is the
// distance from the end of the file to the start of the clip. Metadata is
// either spliced in natively as an APP1 segment or written by exiftool.
package motionphoto
