package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"path stripped", "../../etc/passwd", "passwd"},
		{"spaces and symbols", "my résumé (final).pdf", "my_r_sum___final_.pdf"},
		{"empty", "", "upload"},
		{"dot only", ".", "upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFileName(tt.in))
		})
	}
}

func TestSanitizeFileNameBoundsLength(t *testing.T) {
	long := strings.Repeat("a", 500) + ".txt"
	got := sanitizeFileName(long)
	assert.LessOrEqual(t, len([]rune(got)), maxFileNameRunes)
	assert.True(t, strings.HasSuffix(got, ".txt"), "extension is preserved")
}

func TestMimeAllowed(t *testing.T) {
	pdf := allowedUploads[".pdf"]

	assert.True(t, mimeAllowed("application/pdf", pdf))
	assert.True(t, mimeAllowed("Application/PDF; charset=binary", pdf))
	assert.True(t, mimeAllowed("application/octet-stream", pdf), "octet-stream passes, the extension gate decides")
	assert.False(t, mimeAllowed("image/png", pdf))
	assert.False(t, mimeAllowed("text/plain", pdf))

	md := allowedUploads[".md"]
	assert.True(t, mimeAllowed("text/plain", md))
	assert.True(t, mimeAllowed("text/markdown", md))
}
