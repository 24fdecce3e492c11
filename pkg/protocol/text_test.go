package protocol

import (
	"testing"
)

func TestDecodeBase64Variants(t *testing.T) {
	want := "hello?>"
	tests := []struct {
		name string
		in   string
	}{
		{"std_padded", EncodeBase64([]byte(want))},
		{"std_raw", "aGVsbG8/Pg"},
		{"url_padded", "aGVsbG8_Pg=="},
		{"url_raw", "aGVsbG8_Pg"},
		{"data_url", "data:image/jpeg;base64," + EncodeBase64([]byte(want))},
		{"whitespace", "  " + EncodeBase64([]byte(want)) + "\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeBase64(tc.in)
			if err != nil {
				t.Fatalf("DecodeBase64(%q) error = %v", tc.in, err)
			}
			if string(got) != want {
				t.Errorf("DecodeBase64(%q) = %q, want %q", tc.in, got, want)
			}
		})
	}

	if _, err := DecodeBase64("***"); err == nil {
		t.Error("DecodeBase64(invalid) error = nil")
	}
}

func TestUTF8Helpers(t *testing.T) {
	if !ValidUTF8([]byte("摄像头")) {
		t.Error("ValidUTF8(valid) = false")
	}
	bad := string([]byte{'a', 0xFF, 'b'})
	if ValidUTF8([]byte(bad)) {
		t.Error("ValidUTF8(invalid) = true")
	}
	if got := SanitizeUTF8(bad); got != "a�b" {
		t.Errorf("SanitizeUTF8() = %q", got)
	}
	if got := SanitizeUTF8("ok"); got != "ok" {
		t.Errorf("SanitizeUTF8(valid) = %q", got)
	}
}
