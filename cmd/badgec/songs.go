package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"badge-go/format/bookfmt"
	"badge-go/format/songfmt"
)

// whisperResult is the part of a whisper transcript we care about: word
// timestamps in seconds.
type whisperResult struct {
	Segments []struct {
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"segments"`
}

func newSongsCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "songs <dir>",
		Short: "Pack whisper word-timing transcripts into a lyric container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSongs(cmd, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "songs.bin", "output file")
	return cmd
}

func runSongs(cmd *cobra.Command, dir, out string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var songs []songfmt.Song
	for _, e := range entries {
		name := strings.ToLower(e.Name())
		if e.IsDir() || (!strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".txt")) {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Packing", e.Name())
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		song, err := compileSong(e.Name(), data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		songs = append(songs, song)
	}
	if len(songs) == 0 {
		return fmt.Errorf("no transcript files in %s", dir)
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].Title < songs[j].Title })

	packed := songfmt.Encode(songs)
	fmt.Fprintf(cmd.OutOrStdout(), "%s size: %d\n", out, len(packed))
	return os.WriteFile(out, packed, 0o644)
}

func compileSong(filename string, data []byte) (songfmt.Song, error) {
	var result whisperResult
	if err := json.Unmarshal(data, &result); err != nil {
		return songfmt.Song{}, err
	}

	song := songfmt.Song{Title: songTitle(filename)}
	for _, seg := range result.Segments {
		for _, w := range seg.Words {
			song.Words = append(song.Words, songfmt.Word{
				Start: toUnits(w.Start),
				End:   toUnits(w.End),
				Text:  bookfmt.PrepareText(strings.TrimSpace(w.Word), "_"),
			})
		}
	}
	return song, nil
}

// toUnits converts seconds into the container's 20 ms timestamp units.
func toUnits(seconds float64) uint16 {
	u := int(seconds * 1000 / songfmt.ResolutionMs)
	if u < 0 {
		u = 0
	}
	if u > 0xFFFF {
		u = 0xFFFF
	}
	return uint16(u)
}

// songTitle derives the display title from the transcript filename: the
// extension and any "_words..." transcription suffix are dropped, and the
// rest is mapped onto the badge charset.
func songTitle(filename string) string {
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.LastIndex(title, "_words"); i > 0 {
		title = title[:i]
	}
	title = bookfmt.PrepareText(title, "_")
	if len(title) > songfmt.TitleSize {
		title = title[:songfmt.TitleSize]
	}
	return title
}
