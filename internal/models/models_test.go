package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAuthorizationTokenMatches(t *testing.T) {
	cases := []struct {
		token     AuthorizationToken
		candidate string
		want      bool
	}{
		{"", "", true},
		{"", "anything", true},
		{"x", "x", true},
		{"x", "y", false},
		{"x", "", false},
		{"Secret", "secret", false},
		{"secret ", "secret", false},
	}
	for _, c := range cases {
		if got := c.token.Matches(c.candidate); got != c.want {
			t.Errorf("AuthorizationToken(%q).Matches(%q) = %v, want %v", string(c.token), c.candidate, got, c.want)
		}
	}
}

func TestAuthorizationTokenValueAndScan(t *testing.T) {
	v, err := AuthorizationToken("").Value()
	if err != nil || v != nil {
		t.Fatalf("empty token Value() = %v, %v; want nil", v, err)
	}
	v, err = AuthorizationToken("k").Value()
	if err != nil || v != "k" {
		t.Fatalf("Value() = %v, %v; want k", v, err)
	}

	var tok AuthorizationToken
	if err := tok.Scan([]byte("abc")); err != nil || tok != "abc" {
		t.Fatalf("Scan([]byte) = %q, %v", string(tok), err)
	}
	if err := tok.Scan(nil); err != nil || tok.Protected() {
		t.Fatalf("Scan(nil) left token %q, %v", string(tok), err)
	}
	if err := tok.Scan(42); err == nil {
		t.Fatalf("expected error scanning int")
	}
}

func TestPostJSONHidesSecret(t *testing.T) {
	rating := 7
	p := Post{ID: 3, Title: "A", Rating: &rating, SecretKey: "hunter2"}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "hunter2") || strings.Contains(s, "secret_key") {
		t.Fatalf("secret leaked: %s", s)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["protected"] != true {
		t.Fatalf("protected = %v, want true", out["protected"])
	}
	if out["content"] != nil {
		t.Fatalf("content = %v, want null", out["content"])
	}
	if out["rating"] != float64(7) {
		t.Fatalf("rating = %v", out["rating"])
	}
}

func TestRatingValue(t *testing.T) {
	var p Post
	if p.RatingValue() != 0 {
		t.Fatalf("absent rating should read as 0")
	}
	r := 4
	p.Rating = &r
	if p.RatingValue() != 4 {
		t.Fatalf("RatingValue() = %d", p.RatingValue())
	}
}
