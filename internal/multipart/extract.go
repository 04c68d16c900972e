package multipart

import (
	"bytes"
	"regexp"
)

var (
	dispositionMarker  = []byte("Content-Disposition: form-data;")
	filenamePattern    = regexp.MustCompile(`filename="([^"]+)"`)
	contentTypePattern = regexp.MustCompile(`Content-Type: ([^\r\n]+)`)
)

// Result is the outcome of scanning a buffer.
type Result struct {
	Parts []Part
	// Truncated is set when a Content-Disposition marker was found but its
	// header block never terminated. That trailing data is dropped.
	Truncated bool
}

// Extract returns the parts of buf in the order they appear. See Scan.
func Extract(buf, delimiter []byte) []Part {
	return Scan(buf, delimiter).Parts
}

// Scan walks buf part by part:
//
//  1. find the next Content-Disposition marker; none left ends the scan.
//  2. find the blank line that ends the part header; none ends the scan
//     and marks the result truncated.
//  3. read filename and Content-Type from the header block.
//  4. content runs from after the blank line to the next delimiter, or to
//     the end of buf when the delimiter does not recur.
//
// A buffer without any marker yields zero parts. Content between the header
// and the delimiter is taken verbatim, including the CRLF that precedes the
// delimiter line. A delimiter-like byte sequence inside binary content ends
// that part early.
func Scan(buf, delimiter []byte) Result {
	var res Result

	cursor := 0
	for cursor < len(buf) {
		rel := bytes.Index(buf[cursor:], dispositionMarker)
		if rel < 0 {
			break
		}
		headerStart := cursor + rel

		rel = bytes.Index(buf[headerStart:], headerTerminator)
		if rel < 0 {
			res.Truncated = true
			break
		}
		headerEnd := headerStart + rel

		part := parseHeader(buf[headerStart:headerEnd])

		contentStart := headerEnd + len(headerTerminator)
		contentEnd := len(buf)
		if rel := bytes.Index(buf[contentStart:], delimiter); rel >= 0 {
			contentEnd = contentStart + rel
		}
		part.Content = buf[contentStart:contentEnd:contentEnd]

		res.Parts = append(res.Parts, part)
		cursor = contentEnd + len(delimiter)
	}

	return res
}

func parseHeader(header []byte) Part {
	part := Part{ContentType: DefaultContentType}

	if m := filenamePattern.FindSubmatch(header); m != nil {
		part.Filename = string(m[1])
	}
	if m := contentTypePattern.FindSubmatch(header); m != nil {
		part.ContentType = string(m[1])
	}

	return part
}
