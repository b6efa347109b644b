package channelfmt

import (
	"strings"
	"testing"
)

func TestTextIncludesBodyAndSignature(t *testing.T) {
	got := Text("hello there", "anon7", "mychannel")

	if !strings.HasPrefix(got, "hello there\n\n") {
		t.Fatalf("unexpected body prefix: %q", got)
	}
	if !strings.Contains(got, "👤 anon7") {
		t.Fatalf("signature missing or wrong marker: %q", got)
	}
	if !strings.Contains(got, "@mychannel") {
		t.Fatalf("channel tag missing: %q", got)
	}
}

func TestTextEscapesMarkup(t *testing.T) {
	got := Text("a <b> c", "anon1", "")

	if strings.Contains(got, "<b>") {
		t.Fatalf("markup not escaped: %q", got)
	}
	if !strings.Contains(got, "&lt;b&gt;") {
		t.Fatalf("expected escaped markup: %q", got)
	}
}

func TestCaptionWithoutText(t *testing.T) {
	got := Caption("", "anon2", "mychannel")

	if strings.HasPrefix(got, "\n") {
		t.Fatalf("empty caption must not leave leading newlines: %q", got)
	}
	if !strings.Contains(got, "anon2") {
		t.Fatalf("display name missing: %q", got)
	}
}

func TestCaptionWithText(t *testing.T) {
	got := Caption("nice shot", "anon3", "")

	if !strings.HasPrefix(got, "nice shot\n\n") {
		t.Fatalf("unexpected caption prefix: %q", got)
	}
}
