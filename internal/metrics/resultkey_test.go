package metrics

import (
	"strings"
	"testing"
)

func TestResultKey_ValidateRejectsEmptyKey(t *testing.T) {
	k := NewResultKey(1234567890).WithTag("", "value")
	if err := k.Validate(); err == nil {
		t.Fatal("expected error for empty tag key")
	}
}

func TestResultKey_ValidateRejectsOversizedKey(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'a'
	}
	k := NewResultKey(1234567890).WithTag(string(long), "value")
	if err := k.Validate(); err == nil {
		t.Fatal("expected error for oversized tag key")
	}
}

func TestResultKey_ValidateRejectsControlCharacters(t *testing.T) {
	k := NewResultKey(1234567890).WithTag("key\t", "value")
	if err := k.Validate(); err == nil {
		t.Fatal("expected error for control character in tag key")
	}
}

func TestResultKey_WithTagDropsNulBytes(t *testing.T) {
	k := NewResultKey(1234567890).WithTag("key\x00", "value")
	if _, ok := k.Tags["key\x00"]; ok {
		t.Fatal("expected NUL-containing tag to be dropped")
	}
}

func TestResultKey_StorageKeyRoundTripsSimpleTags(t *testing.T) {
	k := NewResultKey(1234567890).WithTag("env", "prod").WithTag("region", "us-east-1")
	storageKey, err := k.StorageKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(storageKey, "_b64_") {
		t.Fatalf("expected base64 storage key, got %q", storageKey)
	}

	parsed, ok := ResultKeyFromStorageKey(storageKey)
	if !ok {
		t.Fatal("expected successful parse")
	}
	if parsed.TimestampMillis != 1234567890 {
		t.Fatalf("expected timestamp 1234567890, got %d", parsed.TimestampMillis)
	}
	if parsed.Tags["env"] != "prod" || parsed.Tags["region"] != "us-east-1" {
		t.Fatalf("expected tags to round-trip, got %+v", parsed.Tags)
	}
}

func TestResultKey_StorageKeyUsesShaForSpecialCharacters(t *testing.T) {
	k := NewResultKey(1234567890).WithTag("path", "/home/user/data")
	storageKey, err := k.StorageKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(storageKey, "_sha_") {
		t.Fatalf("expected sha storage key, got %q", storageKey)
	}
}

func TestResultKey_StorageKeyIsOrderIndependent(t *testing.T) {
	a := NewResultKey(1).WithTag("env", "prod").WithTag("region", "us")
	b := NewResultKey(1).WithTag("region", "us").WithTag("env", "prod")
	ak, _ := a.StorageKey()
	bk, _ := b.StorageKey()
	if ak != bk {
		t.Fatalf("expected order-independent storage keys, got %q vs %q", ak, bk)
	}
}

func TestResultKey_NoTagsIsTimestampOnly(t *testing.T) {
	k := NewResultKey(42)
	storageKey, err := k.StorageKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if storageKey != "42" {
		t.Fatalf("expected bare timestamp key, got %q", storageKey)
	}
}
