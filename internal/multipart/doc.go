// Package multipart recovers the parts of a multipart/form-data request that
// was read off a raw socket in one piece.
//
// It deliberately does not use mime/multipart: camera firmware sends bodies
// that are only loosely multipart (no trailing delimiter, missing part
// headers, CRLF quirks) and mime/multipart rejects most of them. The scanner
// here is a pure function over an immutable buffer. It anchors on the
// Content-Disposition marker of each part and cuts content at the next
// occurrence of the boundary delimiter.
//
// Content is never copied: every Part.Content is a sub-slice of the input
// buffer and must not outlive it.
package multipart
