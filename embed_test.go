package transferstate

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestEmbedBeforeBodyClose(t *testing.T) {
	c := NewCache()
	c.Set("/api/users?", json.RawMessage(`[{"name":"A"}]`))

	doc, err := Embed([]byte("<html><body><h1>hi</h1></body></html>"), c)
	if err != nil {
		t.Fatal(err)
	}

	out := string(doc)
	scriptIdx := strings.Index(out, scriptOpen)
	bodyIdx := strings.Index(out, "</body>")
	if scriptIdx < 0 {
		t.Fatalf("no state element in %s", out)
	}
	if scriptIdx > bodyIdx {
		t.Fatalf("state element after </body> in %s", out)
	}
}

func TestEmbedWithoutBodyAppends(t *testing.T) {
	doc, err := Embed([]byte("<h1>partial</h1>"), NewCache())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(doc, []byte(scriptClose)) {
		t.Fatalf("state element not appended: %s", doc)
	}
}

func TestExtractRoundTrip(t *testing.T) {
	c := NewCache()
	c.Set("/api/users?", json.RawMessage(`[{"name":"A"}]`))

	doc, err := Embed([]byte("<html><body></body></html>"), c)
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Extract(doc)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := restored.Get("/api/users?")
	if !ok {
		t.Fatal("key missing after extract")
	}
	var users []map[string]string
	if err := json.Unmarshal(v, &users); err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0]["name"] != "A" {
		t.Fatalf("got %v", users)
	}
}

// A payload containing a closing script tag must not terminate the state
// element early.
func TestEmbedEscapesScriptCloser(t *testing.T) {
	c := NewCache()
	c.Set("/api/page?", json.RawMessage(`{"html":"</script><script>alert(1)</script>"}`))

	doc, err := Embed([]byte("<html><body></body></html>"), c)
	if err != nil {
		t.Fatal(err)
	}
	if n := bytes.Count(doc, []byte(scriptClose)); n != 1 {
		t.Fatalf("document contains %d closing script tags", n)
	}

	restored, err := Extract(doc)
	if err != nil {
		t.Fatal(err)
	}
	v, _ := restored.Get("/api/page?")
	var payload map[string]string
	if err := json.Unmarshal(v, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["html"] != "</script><script>alert(1)</script>" {
		t.Fatalf("payload mangled: %s", payload["html"])
	}
}

func TestExtractWithoutState(t *testing.T) {
	_, err := Extract([]byte("<html><body></body></html>"))
	if !errors.Is(err, ErrNotEmbedded) {
		t.Fatalf("got error %v", err)
	}
}
