package vault

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func testVault(t *testing.T) *Vault {
	t.Helper()
	key := make([]byte, MasterKeySize)
	for i := range key {
		key[i] = byte(i)
	}
	v, err := New(key)
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	return v
}

func TestNew_KeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, err := New(make([]byte, n)); err == nil {
			t.Errorf("New accepted %d-byte master key", n)
		}
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v := testVault(t)

	plaintexts := []string{
		"abcd1234",
		"",
		"4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d",
		"0xdeadbeef",
		"유니코드 plaintext ✓",
		strings.Repeat("k", 4096),
	}

	for _, pt := range plaintexts {
		secret, err := v.Encrypt(pt)
		if err != nil {
			t.Fatalf("encrypt %q: %v", pt, err)
		}
		got, err := v.Decrypt(secret)
		if err != nil {
			t.Fatalf("decrypt %q: %v", pt, err)
		}
		if got != pt {
			t.Errorf("round trip mismatch: got %q, want %q", got, pt)
		}
	}
}

func TestEncrypt_SecretFormat(t *testing.T) {
	v := testVault(t)

	secret, err := v.Encrypt("abcd1234")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if strings.Count(secret, ":") != 2 {
		t.Fatalf("secret %q should contain exactly two colons", secret)
	}

	parts := strings.Split(secret, ":")
	// IV and tag are 16 bytes each: 32 hex characters.
	if len(parts[0]) != 32 {
		t.Errorf("iv segment length = %d, want 32", len(parts[0]))
	}
	if len(parts[1]) != 32 {
		t.Errorf("tag segment length = %d, want 32", len(parts[1]))
	}
	for i, p := range parts {
		if _, err := hex.DecodeString(p); err != nil {
			t.Errorf("part %d is not valid hex: %v", i, err)
		}
	}
}

func TestEncrypt_FreshIVPerCall(t *testing.T) {
	v := testVault(t)

	a, _ := v.Encrypt("same plaintext")
	b, _ := v.Encrypt("same plaintext")
	if strings.Split(a, ":")[0] == strings.Split(b, ":")[0] {
		t.Error("two encryptions reused the same IV")
	}
}

func TestDecrypt_TamperDetection(t *testing.T) {
	v := testVault(t)

	secret, err := v.Encrypt("abcd1234")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	parts := strings.Split(secret, ":")

	flip := func(hexStr string, bit int) string {
		raw, _ := hex.DecodeString(hexStr)
		raw[bit/8] ^= 1 << (bit % 8)
		return hex.EncodeToString(raw)
	}

	// Flip every bit of the tag and the first bytes of the ciphertext.
	for bit := 0; bit < 128; bit++ {
		tampered := parts[0] + ":" + flip(parts[1], bit) + ":" + parts[2]
		if _, err := v.Decrypt(tampered); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("tag bit %d: got %v, want ErrAuthentication", bit, err)
		}
	}
	ctBits := len(parts[2]) / 2 * 8
	for bit := 0; bit < ctBits; bit++ {
		tampered := parts[0] + ":" + parts[1] + ":" + flip(parts[2], bit)
		if _, err := v.Decrypt(tampered); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("ciphertext bit %d: got %v, want ErrAuthentication", bit, err)
		}
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	v1 := testVault(t)

	other := make([]byte, MasterKeySize)
	for i := range other {
		other[i] = byte(255 - i)
	}
	v2, err := New(other)
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}

	secret, _ := v1.Encrypt("abcd1234")
	if _, err := v2.Decrypt(secret); !errors.Is(err, ErrAuthentication) {
		t.Errorf("decrypt under wrong key: got %v, want ErrAuthentication", err)
	}
}

func TestDecrypt_Malformed(t *testing.T) {
	v := testVault(t)
	valid, _ := v.Encrypt("abcd1234")
	parts := strings.Split(valid, ":")

	tests := []struct {
		name   string
		secret string
	}{
		{"empty", ""},
		{"one part", "deadbeef"},
		{"two parts", parts[0] + ":" + parts[1]},
		{"four parts", valid + ":ff"},
		{"non-hex iv", "zz" + parts[0][2:] + ":" + parts[1] + ":" + parts[2]},
		{"non-hex tag", parts[0] + ":nothex!" + ":" + parts[2]},
		{"non-hex ciphertext", parts[0] + ":" + parts[1] + ":xyz"},
		{"short iv", "dead" + ":" + parts[1] + ":" + parts[2]},
		{"short tag", parts[0] + ":" + "beef" + ":" + parts[2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Decrypt(tt.secret)
			if !errors.Is(err, ErrMalformedSecret) {
				t.Errorf("Decrypt(%q) = %v, want ErrMalformedSecret", tt.secret, err)
			}
		})
	}
}
