package policy

import "testing"

func TestCompilePlainPattern(t *testing.T) {
	cache := NewCache()
	cp, err := cache.Get("git push", StyleDigits)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !cp.Match("git push") {
		t.Fatal("expected literal match")
	}
	if cp.Match("git push origin") {
		t.Fatal("literal pattern must not match a longer command")
	}
}

func TestDigitRunSingle(t *testing.T) {
	cache := NewCache()
	cp, err := cache.Get("kill #", StyleDigits)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, cmd := range []string{"kill 1", "kill 12345", "kill #"} {
		if !cp.Match(cmd) {
			t.Errorf("expected %q to match", cmd)
		}
	}
	if cp.Match("kill") {
		t.Error("bare 'kill' must not match")
	}
	if cp.Match("kill abc") {
		t.Error("non-digit argument must not match")
	}
}

func TestDigitRunFixedWidth(t *testing.T) {
	cache := NewCache()
	cp, err := cache.Get("job ##", StyleDigits)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !cp.Match("job 12") {
		t.Error("expected two-digit job id to match")
	}
	if cp.Match("job 1") {
		t.Error("one digit must not satisfy a two-wide run")
	}
	if cp.Match("job 123") {
		t.Error("three digits must not satisfy a two-wide run")
	}
}

func TestHexdigitsStyle(t *testing.T) {
	cache := NewCache()
	cp, err := cache.Get("commit #", StyleHexdigits)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !cp.Match("commit deadbeef") {
		t.Error("expected hex string to match")
	}
	if cp.Match("commit ghijkl") {
		t.Error("non-hex letters must not match")
	}
}

func TestExactStyleDigitHashIsLiteral(t *testing.T) {
	cache := NewCache()
	cp, err := cache.Get("job #", StyleExact)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !cp.Match("job #") {
		t.Error("exact style must treat '#' as itself")
	}
	if cp.Match("job 1") {
		t.Error("exact style must not substitute digits for '#'")
	}
}

func TestSpecialCharactersEscaped(t *testing.T) {
	cache := NewCache()
	cp, err := cache.Get("echo a.b#", StyleDigits)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cp.Match("echo aXb1") {
		t.Error("'.' must be escaped, not treated as regex any-char")
	}
	if !cp.Match("echo a.b1") {
		t.Error("expected literal '.' to match itself")
	}
}

func TestCacheMemoizes(t *testing.T) {
	cache := NewCache()
	a, err := cache.Get("foo #", StyleDigits)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Get("foo #", StyleDigits)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected identical compiled pattern from cache")
	}
}
