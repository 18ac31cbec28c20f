package gcs

import "testing"

func TestEscapeKey(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"profiles/u1/obj.jpg":    "profiles/u1/obj.jpg",
		"profiles/u1/my pic.png": "profiles/u1/my%20pic.png",
		"profiles/u1/a?b#c.webp": "profiles/u1/a%3Fb%23c.webp",
	}
	for in, want := range tests {
		if got := escapeKey(in); got != want {
			t.Fatalf("escapeKey(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestStore_URL(t *testing.T) {
	t.Parallel()
	s := &Store{baseURL: "https://cdn.example.com"}
	if got := s.URL("profiles/u1/obj.jpg"); got != "https://cdn.example.com/profiles/u1/obj.jpg" {
		t.Fatalf("URL()=%q", got)
	}
}
