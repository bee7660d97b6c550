package songfmt

import (
	"strings"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	songs := []Song{
		{
			Title: "opening_theme.flac",
			Words: []Word{
				{Start: 0, End: 25, Text: "Hello"},
				{Start: 25, End: 80, Text: "badge"},
				{Start: 100, End: 130, Text: "world"},
			},
		},
		{
			Title: "second.mp3",
			Words: []Word{{Start: 5, End: 10, Text: "solo"}},
		},
	}

	got, err := Decode(Encode(songs))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("song count = %d, want 2", len(got))
	}
	if got[0].Title != "opening_theme.flac" {
		t.Errorf("title = %q", got[0].Title)
	}
	if len(got[0].Words) != 3 || got[0].Words[1].Text != "badge" {
		t.Errorf("words = %+v", got[0].Words)
	}
	if got[1].Words[0].Start != 5 || got[1].Words[0].End != 10 {
		t.Errorf("second song timing = %+v", got[1].Words[0])
	}
}

func TestEncode_TruncatesLongTokens(t *testing.T) {
	long := strings.Repeat("x", 300)
	got, err := Decode(Encode([]Song{{Title: "t", Words: []Word{{Start: 0, End: 1, Text: long}}}}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got[0].Words[0].Text) != 255 {
		t.Errorf("token length = %d, want 255", len(got[0].Words[0].Text))
	}
}

func TestDecode_Truncated(t *testing.T) {
	data := Encode([]Song{{Title: "t", Words: []Word{{Start: 0, End: 1, Text: "a"}}}})
	for _, n := range []int{1, TitleSize, TitleSize + 3, len(data) - 1} {
		if _, err := Decode(data[:n]); err == nil {
			t.Errorf("Decode of %d-byte prefix succeeded", n)
		}
	}
}

func TestWordAt(t *testing.T) {
	s := Song{Words: []Word{
		{Start: 0, End: 5, Text: "a"},   // 0..100ms
		{Start: 5, End: 10, Text: "b"},  // 100..200ms
		{Start: 20, End: 25, Text: "c"}, // 400..500ms
	}}
	cases := []struct {
		ms   int
		want int
	}{
		{0, 0}, {99, 0}, {100, 1}, {250, -1}, {400, 2}, {500, -1},
	}
	for _, tc := range cases {
		if got := s.WordAt(tc.ms); got != tc.want {
			t.Errorf("WordAt(%d) = %d, want %d", tc.ms, got, tc.want)
		}
	}
}
