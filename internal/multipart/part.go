package multipart

import "strings"

// DefaultContentType is used for parts whose header block has no
// Content-Type line.
const DefaultContentType = "application/octet-stream"

// Kind classifies a part by how it is persisted.
type Kind string

const (
	KindImage Kind = "image"
	KindXML   Kind = "xml"
	KindOther Kind = "other"
)

// Part is one section of a multipart body.
type Part struct {
	ContentType string
	// Filename is the value of filename="..." in the part header, or ""
	// when the header carries none. A declared filename is never empty.
	Filename string
	Content  []byte
}

// HasFilename reports whether the part header declared a filename.
func (p Part) HasFilename() bool {
	return p.Filename != ""
}

// Kind returns KindImage for image/* parts, KindXML for application/xml*
// parts and KindOther for everything else. Matching is a case-sensitive
// prefix match on the declared content type.
func (p Part) Kind() Kind {
	switch {
	case strings.HasPrefix(p.ContentType, "image/"):
		return KindImage
	case strings.HasPrefix(p.ContentType, "application/xml"):
		return KindXML
	default:
		return KindOther
	}
}
