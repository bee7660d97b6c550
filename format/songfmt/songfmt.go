// Package songfmt reads and writes the packed word-timing container used for
// lyric playback. Timestamps are stored in 20 ms units.
package songfmt

import (
	"encoding/binary"

	"badge-go/errcode"
)

// Resolution is the timestamp unit.
const ResolutionMs = 20

// TitleSize is the fixed, NUL-padded title field length.
const TitleSize = 64

// Word is one timed token.
type Word struct {
	Start uint16 // 20 ms units
	End   uint16
	Text  string
}

// StartMs returns the word start in milliseconds.
func (w Word) StartMs() int { return int(w.Start) * ResolutionMs }

// EndMs returns the word end in milliseconds.
func (w Word) EndMs() int { return int(w.End) * ResolutionMs }

// Song is a titled sequence of timed words.
type Song struct {
	Title string
	Words []Word
}

// Encode packs songs back to back:
// 64-byte title, u32 body length, then <start:u16 end:u16 len:u8> + text
// per word, all little-endian.
func Encode(songs []Song) []byte {
	var out []byte
	for _, s := range songs {
		title := make([]byte, TitleSize)
		copy(title, s.Title)
		out = append(out, title...)

		var body []byte
		for _, w := range s.Words {
			text := []byte(w.Text)
			if len(text) > 255 {
				text = text[:255]
			}
			body = binary.LittleEndian.AppendUint16(body, w.Start)
			body = binary.LittleEndian.AppendUint16(body, w.End)
			body = append(body, byte(len(text)))
			body = append(body, text...)
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
		out = append(out, body...)
	}
	return out
}

// Decode parses a packed container.
func Decode(data []byte) ([]Song, error) {
	var songs []Song
	for len(data) > 0 {
		if len(data) < TitleSize+4 {
			return nil, errcode.InvalidPayload
		}
		title := trimNul(data[:TitleSize])
		n := binary.LittleEndian.Uint32(data[TitleSize:])
		data = data[TitleSize+4:]
		if uint32(len(data)) < n {
			return nil, errcode.InvalidPayload
		}
		body := data[:n]
		data = data[n:]

		words, err := decodeWords(body)
		if err != nil {
			return nil, err
		}
		songs = append(songs, Song{Title: title, Words: words})
	}
	return songs, nil
}

func decodeWords(body []byte) ([]Word, error) {
	var words []Word
	for len(body) > 0 {
		if len(body) < 5 {
			return nil, errcode.InvalidPayload
		}
		w := Word{
			Start: binary.LittleEndian.Uint16(body),
			End:   binary.LittleEndian.Uint16(body[2:]),
		}
		n := int(body[4])
		body = body[5:]
		if len(body) < n {
			return nil, errcode.InvalidPayload
		}
		w.Text = string(body[:n])
		body = body[n:]
		words = append(words, w)
	}
	return words, nil
}

func trimNul(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// WordAt returns the word active at the given playback time, or -1.
func (s *Song) WordAt(ms int) int {
	for i, w := range s.Words {
		if ms >= w.StartMs() && ms < w.EndMs() {
			return i
		}
	}
	return -1
}
