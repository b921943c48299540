package shift

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeProofImage(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0}
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("raw base64", func(t *testing.T) {
		data, contentType, err := decodeProofImage(encoded)
		if err != nil {
			t.Fatalf("decodeProofImage: %v", err)
		}
		if !bytes.Equal(data, raw) {
			t.Errorf("data = %v, want %v", data, raw)
		}
		if contentType != "image/jpeg" {
			t.Errorf("contentType = %s, want image/jpeg default", contentType)
		}
	})

	t.Run("data URI", func(t *testing.T) {
		data, contentType, err := decodeProofImage("data:image/png;base64," + encoded)
		if err != nil {
			t.Fatalf("decodeProofImage: %v", err)
		}
		if !bytes.Equal(data, raw) {
			t.Errorf("data = %v, want %v", data, raw)
		}
		if contentType != "image/png" {
			t.Errorf("contentType = %s, want image/png", contentType)
		}
	})

	t.Run("malformed data URI", func(t *testing.T) {
		if _, _, err := decodeProofImage("data:image/png;base64"); err == nil {
			t.Error("expected error for data URI without payload")
		}
	})

	t.Run("invalid base64", func(t *testing.T) {
		if _, _, err := decodeProofImage("not base64 at all!!"); err == nil {
			t.Error("expected error for invalid base64")
		}
	})
}

func TestExtractJSONFromMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"total_cod": 3}`, `{"total_cod": 3}`},
		{"json fence", "```json\n{\"total_cod\": 3}\n```", `{"total_cod": 3}`},
		{"generic fence", "```\n{\"total_cod\": 3}\n```", `{"total_cod": 3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSONFromMarkdown(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
