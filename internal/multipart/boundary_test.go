package multipart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveBoundary(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{
			name:   "header with boundary",
			input:  "POST /ISAPI HTTP/1.1\r\nContent-Type: multipart/form-data; boundary=XYZ\r\n\r\n--XYZ\r\n",
			want:   "--XYZ",
			wantOK: true,
		},
		{
			name:   "surrounding whitespace trimmed",
			input:  "Content-Type: multipart/form-data; boundary=  abc123 \t\r\nHost: cam\r\n\r\n",
			want:   "--abc123",
			wantOK: true,
		},
		{
			name:   "boundary at end of buffer",
			input:  "Content-Type: multipart/form-data; boundary=tail",
			want:   "--tail",
			wantOK: true,
		},
		{
			name:   "quotes are kept",
			input:  "Content-Type: multipart/form-data; boundary=\"q\"\r\n\r\n",
			want:   "--\"q\"",
			wantOK: true,
		},
		{
			name:   "no boundary",
			input:  "POST / HTTP/1.1\r\nContent-Type: text/plain\r\n\r\nhello",
			wantOK: false,
		},
		{
			name:   "empty token",
			input:  "Content-Type: multipart/form-data; boundary=   \r\n\r\n",
			wantOK: false,
		},
		{
			name:   "case sensitive",
			input:  "Content-Type: multipart/form-data; Boundary=XYZ\r\n\r\n",
			wantOK: false,
		},
		{
			name:   "boundary only in body is ignored",
			input:  "POST / HTTP/1.1\r\nHost: cam\r\n\r\nboundary=body\r\n",
			wantOK: false,
		},
		{
			name:   "empty buffer",
			input:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveBoundary([]byte(tt.input))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, string(got))
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestResolveBoundary_Idempotent(t *testing.T) {
	input := []byte("Content-Type: multipart/form-data; boundary=MIME_boundary\r\n\r\nbody")

	first, ok := ResolveBoundary(input)
	assert.True(t, ok)
	second, ok := ResolveBoundary(input)
	assert.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, "Content-Type: multipart/form-data; boundary=MIME_boundary\r\n\r\nbody", string(input))
}

func TestResolveBoundary_NonUTF8Header(t *testing.T) {
	input := append([]byte("X-Cam: \xff\xfe\r\nContent-Type: multipart/form-data; boundary=b1"), []byte("\r\n\r\n")...)

	got, ok := ResolveBoundary(input)
	assert.True(t, ok)
	assert.Equal(t, "--b1", string(got))
}
