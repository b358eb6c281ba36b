package application

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := NewArgon2idHasher(testArgon2Params)("s3cret-pass")
	if err != nil {
		t.Fatalf("hashing failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", hash)
	}

	again, err := CreatePasswordHash("s3cret-pass", testArgon2Params)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if again == hash {
		t.Fatalf("expected a fresh salt per hash")
	}

	if err := VerifyPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("VerifyPassword rejected the right password: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword(strings.Replace(hash, "v=19", "v=18", 1), "s3cret-pass"); !errors.Is(err, ErrIncompatiblePasswordVersion) {
		t.Fatalf("expected ErrIncompatiblePasswordVersion, got %v", err)
	}
}

func TestParseArgon2idHashRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	for _, encoded := range []string{
		"plain",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
		"plain:correct horse",
	} {
		if _, err := parseArgon2idHash(encoded); !errors.Is(err, ErrInvalidPasswordHash) {
			t.Fatalf("%q: expected ErrInvalidPasswordHash, got %v", encoded, err)
		}
	}

	h, err := parseArgon2idHash("$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if h.params.SaltLength != 8 || h.params.KeyLength != 12 || h.params.Memory != 1024 {
		t.Fatalf("unexpected params %#v", h.params)
	}
}
