package transferstate

import (
	"net/url"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	params := url.Values{}
	params.Set("page", "2")
	params.Set("sort", "name")

	if Key("/api/users", params) != Key("/api/users", params) {
		t.Fatal("same input produced different keys")
	}
}

func TestKeyParamOrderIndependent(t *testing.T) {
	a := url.Values{}
	a.Add("sort", "name")
	a.Add("page", "2")

	b := url.Values{}
	b.Add("page", "2")
	b.Add("sort", "name")

	if ka, kb := Key("/api/users", a), Key("/api/users", b); ka != kb {
		t.Fatalf("keys differ: %s vs %s", ka, kb)
	}
}

func TestKeyNoParams(t *testing.T) {
	if key := Key("/api/users", nil); key != "/api/users?" {
		t.Fatalf("key is %s", key)
	}
	if key := Key("/api/users", url.Values{}); key != "/api/users?" {
		t.Fatalf("key is %s", key)
	}
}

func TestKeyDifferentParamsDifferentKeys(t *testing.T) {
	a := url.Values{"page": {"1"}}
	b := url.Values{"page": {"2"}}
	if Key("/api/users", a) == Key("/api/users", b) {
		t.Fatal("different params produced the same key")
	}
}
