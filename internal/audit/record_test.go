package audit

import "testing"

func TestRenderEscapesSpecialBytes(t *testing.T) {
	e := Event{
		Type:    "allowed",
		User:    "alice",
		Command: "echo \"hi\"\t\\n",
	}
	got := e.Render()
	if got == "" {
		t.Fatal("expected non-empty render")
	}
	if !containsAll(got, `type="allowed"`, `user="alice"`, `command="echo \"hi\"\x09\\n"`) {
		t.Fatalf("missing expected fields in %q", got)
	}
}

func TestRenderOmitsEmptyFields(t *testing.T) {
	e := Event{Type: "allowed", User: "alice"}
	got := e.Render()
	if contains(got, "group=") || contains(got, "label=") || contains(got, "command=") {
		t.Fatalf("expected empty fields to be omitted: %q", got)
	}
}

func TestEscapeUnescapeRoundTrip(t *testing.T) {
	raw := "line1\nline2\t\"quote\"\\slash\x01"
	escaped := escape(raw)
	back := Unescape(escaped)
	if back != raw {
		t.Fatalf("round trip mismatch: got %q want %q", back, raw)
	}
}

func TestIsError(t *testing.T) {
	if !(Event{Type: "configerror"}).IsError() {
		t.Error("configerror must be an error event")
	}
	if !(Event{Type: "disallowed"}).IsError() {
		t.Error("disallowed decisions must be error events")
	}
	if (Event{Type: "allowed"}).IsError() {
		t.Error("allowed decisions must not be error events")
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !contains(s, sub) {
			return false
		}
	}
	return true
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
