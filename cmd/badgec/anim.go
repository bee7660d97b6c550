package main

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"os"

	"github.com/spf13/cobra"

	"badge-go/format/animfmt"
)

func newAnimCmd() *cobra.Command {
	var (
		out  string
		skip int
		crop []int
	)
	cmd := &cobra.Command{
		Use:   "anim <gif>",
		Short: "Convert a GIF into an XOR-delta animation container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rect *image.Rectangle
			if len(crop) != 0 {
				if len(crop) != 4 {
					return fmt.Errorf("--crop wants x0,y0,x1,y1")
				}
				r := image.Rect(crop[0], crop[1], crop[2], crop[3])
				rect = &r
			}
			return runAnim(cmd, args[0], out, skip, rect)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "anim.bin", "output file")
	cmd.Flags().IntVar(&skip, "skip", 0, "leading frames to drop")
	cmd.Flags().IntSliceVar(&crop, "crop", nil, "source crop rectangle x0,y0,x1,y1")
	return cmd
}

func runAnim(cmd *cobra.Command, path, out string, skip int, crop *image.Rectangle) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	g, err := gif.DecodeAll(f)
	if err != nil {
		return err
	}
	if skip >= len(g.Image) {
		return fmt.Errorf("--skip %d leaves no frames (gif has %d)", skip, len(g.Image))
	}

	// GIF frames can be partial updates, so composite each one onto a
	// running canvas before converting.
	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	canvas := image.NewRGBA(bounds)
	var frames [][]byte
	for i, src := range g.Image {
		draw.Draw(canvas, src.Bounds(), src, src.Bounds().Min, draw.Over)
		if i < skip {
			continue
		}
		var view image.Image = canvas
		if crop != nil {
			view = canvas.SubImage(*crop)
		}
		frames = append(frames, packHLSB(thresholdMono(scaleNearest(view, displayW, displayH))))
	}

	packed, err := animfmt.Encode(frames)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames, %d bytes\n", out, len(frames), len(packed))
	return os.WriteFile(out, packed, 0o644)
}
