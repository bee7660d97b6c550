// Package main is the entry point for badgec, the host-side asset compiler.
// It packs books, song lyrics, sponsor logos and animations into the binary
// containers the badge firmware embeds or loads from flash.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "badgec",
		Short: "Asset compiler for the badge firmware",
		Long: `badgec converts source assets into the packed formats the badge reads.

Subcommands:
  books    compile EPUB-export HTML files into a compressed book container
  songs    pack whisper word-timing transcripts into a lyric container
  gallery  dither images into 128x64 bitplanes emitted as Go source
  anim     convert a GIF into an XOR-delta animation container`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newBooksCmd())
	rootCmd.AddCommand(newSongsCmd())
	rootCmd.AddCommand(newGalleryCmd())
	rootCmd.AddCommand(newAnimCmd())

	return rootCmd
}
