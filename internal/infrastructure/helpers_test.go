package infrastructure

import (
	"errors"
	"testing"

	"github.com/itsManeka/gibipromo-sub001/pkg/e"
)

func TestGetExtensionFromMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", "jpg"},
		{"image/jpg", "jpg"},
		{"image/png", "png"},
		{"image/webp", "webp"},
	}

	for _, tt := range tests {
		got, err := GetExtensionFromMIME(tt.mime)
		if err != nil {
			t.Fatalf("GetExtensionFromMIME(%q) returned error: %v", tt.mime, err)
		}
		if got != tt.want {
			t.Fatalf("GetExtensionFromMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}

func TestGetExtensionFromMIMEUnsupported(t *testing.T) {
	for _, mime := range []string{"image/gif", "text/html", ""} {
		if _, err := GetExtensionFromMIME(mime); !errors.Is(err, e.ErrUnsupportedMediaType) {
			t.Fatalf("GetExtensionFromMIME(%q) = %v, want ErrUnsupportedMediaType", mime, err)
		}
	}
}
