package password

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Cheap parameters keep the suite fast; they still satisfy Validate.
func testConfig() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(testConfig(), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}
	return h
}

func TestArgon2HashAndVerify(t *testing.T) {
	a, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := a.Hash("P@ssw0rd")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := a.Verify("P@ssw0rd", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification to succeed: ok=%v err=%v", ok, err)
	}
	ok, err = a.Verify("wrong", hash)
	if err != nil || ok {
		t.Fatalf("expected verification to fail: ok=%v err=%v", ok, err)
	}
}

func TestArgon2RejectsWeakConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected low memory to be rejected")
	}
	cfg = testConfig()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected short salt to be rejected")
	}
}

func TestArgon2VerifyMalformed(t *testing.T) {
	a, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := a.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	bad := []string{
		"not-a-phc-hash",
		strings.Replace(hash, "$v=19$", "$v=18$", 1),
		strings.Replace(hash, "m=8192", "m=10", 1),
		strings.Replace(hash, ",p=1", ",p=1,x=2", 1),
		strings.Replace(hash, "t=1", "m=1", 1),
	}
	for _, in := range bad {
		if _, err := a.Verify("version-test", in); err == nil {
			t.Fatalf("expected %q to be rejected", in)
		}
	}
}

func TestArgon2AcceptsPaddedEncoding(t *testing.T) {
	a, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := a.Hash("padded")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	// 16-byte salt encodes to 22 raw chars, 24 padded.
	fields := strings.Split(hash, "$")
	fields[4] += "=="
	ok, err := a.Verify("padded", strings.Join(fields, "$"))
	if err != nil || !ok {
		t.Fatalf("expected padded salt to verify: ok=%v err=%v", ok, err)
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	weak, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := weak.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	same, err := weak.NeedsUpgrade(hash)
	if err != nil || same {
		t.Fatalf("expected no upgrade for same params: %v %v", same, err)
	}

	strongCfg := testConfig()
	strongCfg.Time = 2
	strong, err := NewArgon2(strongCfg)
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	up, err := strong.NeedsUpgrade(hash)
	if err != nil || !up {
		t.Fatalf("expected upgrade for weaker params: %v %v", up, err)
	}
}

func TestHasherVerifiesBcrypt(t *testing.T) {
	h := newTestHasher(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	ok, err := h.Verify("legacy-pass", string(legacy))
	if err != nil || !ok {
		t.Fatalf("expected bcrypt verification to succeed: ok=%v err=%v", ok, err)
	}
	ok, err = h.Verify("nope", string(legacy))
	if err != nil || ok {
		t.Fatalf("expected bcrypt mismatch: ok=%v err=%v", ok, err)
	}

	up, err := h.NeedsUpgrade(string(legacy))
	if err != nil || !up {
		t.Fatalf("expected bcrypt hashes to need upgrade: %v %v", up, err)
	}
}

func TestHasherHashesWithArgon2(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("fresh-pass")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, argon2Prefix) {
		t.Fatalf("expected argon2id hash, got %s", hash)
	}
	ok, err := h.Verify("fresh-pass", hash)
	if err != nil || !ok {
		t.Fatalf("expected verification: ok=%v err=%v", ok, err)
	}
}

func TestHasherRejectsUnknownFormat(t *testing.T) {
	h := newTestHasher(t)
	if _, err := h.Verify("x", "$md5$abc"); err != ErrUnsupportedHash {
		t.Fatalf("expected ErrUnsupportedHash, got %v", err)
	}
}
