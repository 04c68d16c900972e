package multipart

import "bytes"

var (
	boundaryParam    = []byte("boundary=")
	crlf             = []byte("\r\n")
	headerTerminator = []byte("\r\n\r\n")
	delimiterPrefix  = []byte("--")
)

// ResolveBoundary finds the boundary= parameter in the transport header of
// buf and returns the in-body delimiter, which is "--" followed by the
// declared token. The token runs up to the next CRLF (or the end of the
// header) and is trimmed of surrounding whitespace. Quotes are not removed.
//
// The transport header is everything before the first blank line; when buf
// has no blank line the whole buffer is searched. ok is false when the
// header declares no boundary or an empty one.
func ResolveBoundary(buf []byte) (delimiter []byte, ok bool) {
	header := buf
	if end := bytes.Index(buf, headerTerminator); end >= 0 {
		header = buf[:end]
	}

	start := bytes.Index(header, boundaryParam)
	if start < 0 {
		return nil, false
	}

	token := header[start+len(boundaryParam):]
	if end := bytes.Index(token, crlf); end >= 0 {
		token = token[:end]
	}
	token = bytes.TrimSpace(token)
	if len(token) == 0 {
		return nil, false
	}

	delimiter = make([]byte, 0, len(delimiterPrefix)+len(token))
	delimiter = append(delimiter, delimiterPrefix...)
	delimiter = append(delimiter, token...)
	return delimiter, true
}
