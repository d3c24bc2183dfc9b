package fingerprint

import (
	"strings"
	"testing"
)

func TestFingerprintDeterminism(t *testing.T) {
	content := []byte("diploma-123")
	a := Fingerprint(content)
	b := Fingerprint(content)
	if a != b {
		t.Fatalf("same content produced different fingerprints: %s vs %s", a, b)
	}
	if a != "a6baba6d3041933327218b4533db358c0345f9dd4f7fd87afcd8acc3de1ed412" {
		t.Errorf("unexpected fingerprint for known content: %s", a)
	}
}

func TestFingerprintDiffers(t *testing.T) {
	if Fingerprint([]byte("diploma-123")) == Fingerprint([]byte("diploma-124")) {
		t.Fatal("different content produced equal fingerprints")
	}
}

func TestFingerprintEmpty(t *testing.T) {
	got := Fingerprint(nil)
	if got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("unexpected fingerprint for empty content: %s", got)
	}
}

func TestBytes32(t *testing.T) {
	fp := Fingerprint([]byte("x"))
	if got := Bytes32(fp); !strings.HasPrefix(got, "0x") || got[2:] != fp {
		t.Errorf("Bytes32(%s) = %s", fp, got)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{Fingerprint([]byte("x")), true},
		{"", false},
		{strings.Repeat("0", HexLen), true},
		{strings.Repeat("0", HexLen-1), false},
		{strings.Repeat("G", HexLen), false},
		{strings.ToUpper(Fingerprint([]byte("x"))), false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.in); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
