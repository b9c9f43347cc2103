package dedup

import "testing"

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTPS://Example.COM/Article/", "https://example.com/Article"},
		{"https://example.com/a?utm_source=rss&utm_medium=feed", "https://example.com/a"},
		{"https://example.com/a?id=5&fbclid=xyz", "https://example.com/a?id=5"},
		{"https://example.com/a#section-2", "https://example.com/a"},
		{"", ""},
		{"not a url/", "not a url"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"OpenAI Releases GPT-5 - The Verge", "openai releases gpt 5"},
		{"OpenAI Releases GPT-5 | TechCrunch", "openai releases gpt 5"},
		{"  Spaced   Out\tTitle  ", "spaced out title"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTitleTruncates(t *testing.T) {
	long := "a very long title that keeps going and going and going and going and going"
	got := NormalizeTitle(long)
	if len(got) > 60 {
		t.Errorf("normalized title too long: %d chars", len(got))
	}
}

func TestKeywords(t *testing.T) {
	kw := Keywords("The New AI Model That Changes Reinforcement Learning")
	for _, stop := range []string{"the", "new", "that"} {
		if _, ok := kw[stop]; ok {
			t.Errorf("stopword %q should be excluded", stop)
		}
	}
	for _, want := range []string{"model", "changes", "reinforcement", "learning"} {
		if _, ok := kw[want]; !ok {
			t.Errorf("keyword %q missing from %v", want, kw)
		}
	}
	if _, ok := kw["ai"]; ok {
		t.Error("two-letter token 'ai' should be excluded")
	}
}
