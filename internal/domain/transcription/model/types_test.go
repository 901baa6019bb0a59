package model

import "testing"

func TestNewVideoReferenceNormalization(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts path", "https://youtube.com/shorts/abc123XYZ_-", "abc123XYZ_-"},
		{"embed path", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile host", "https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := NewVideoReference(tt.url)
			if err != nil {
				t.Fatalf("NewVideoReference(%q) error: %v", tt.url, err)
			}
			if ref.ID != tt.want {
				t.Fatalf("id = %q, expected %q", ref.ID, tt.want)
			}
			if ref.Kind != RefRemoteVideo {
				t.Fatalf("kind = %q, expected video", ref.Kind)
			}
		})
	}
}

func TestNewVideoReferenceRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "https://example.com/clip.mp4", "not a url at all ::"} {
		if _, err := NewVideoReference(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestCacheKeyIsPrincipalScoped(t *testing.T) {
	ref, err := NewVideoReference("https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("NewVideoReference error: %v", err)
	}

	a := CacheKey(ref, "user-a")
	b := CacheKey(ref, "user-b")
	if a == b {
		t.Fatalf("cache keys must differ per principal: %q", a)
	}

	again := CacheKey(ref, "user-a")
	if a != again {
		t.Fatalf("cache key not deterministic: %q vs %q", a, again)
	}
}

func TestNewUploadReference(t *testing.T) {
	ref, err := NewUploadReference("uploads/lecture-01.mp3")
	if err != nil {
		t.Fatalf("NewUploadReference error: %v", err)
	}
	if ref.Key() != "audio:uploads/lecture-01.mp3" {
		t.Fatalf("unexpected key: %q", ref.Key())
	}
	if _, err := NewUploadReference("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}
