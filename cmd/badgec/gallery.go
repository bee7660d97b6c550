package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// galleryManifest describes a gallery build. Image paths are relative to the
// manifest file.
type galleryManifest struct {
	Package string   `yaml:"package"`
	Var     string   `yaml:"var"`
	Out     string   `yaml:"out"`
	Images  []string `yaml:"images"`
}

func newGalleryCmd() *cobra.Command {
	var manifest string
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Dither images into 128x64 bitplanes emitted as Go source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGallery(cmd, manifest)
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "manifest.yaml", "gallery manifest")
	return cmd
}

func runGallery(cmd *cobra.Command, manifestPath string) error {
	raw, err := os.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	m := galleryManifest{Package: "assets", Var: "Logos", Out: "gallery.go"}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("parse %s: %w", manifestPath, err)
	}
	if len(m.Images) == 0 {
		return fmt.Errorf("%s lists no images", manifestPath)
	}

	dir := filepath.Dir(manifestPath)
	var sb strings.Builder
	fmt.Fprintf(&sb, "// Code generated by badgec gallery. DO NOT EDIT.\n\n")
	fmt.Fprintf(&sb, "package %s\n\n", m.Package)
	fmt.Fprintf(&sb, "var %s = [][]byte{\n", m.Var)
	for _, name := range m.Images {
		fmt.Fprintln(cmd.OutOrStdout(), "Processing", name)
		plane, err := compileImage(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(&sb, "\t// %s\n", name)
		writeByteLiteral(&sb, plane)
	}
	sb.WriteString("}\n")

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d images\n", m.Out, len(m.Images))
	return os.WriteFile(m.Out, []byte(sb.String()), 0o644)
}

func compileImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return packHLSB(ditherMono(scaleNearest(img, displayW, displayH))), nil
}

// writeByteLiteral emits one []byte element, 16 bytes per line.
func writeByteLiteral(sb *strings.Builder, data []byte) {
	sb.WriteString("\t{\n")
	for i, b := range data {
		if i%16 == 0 {
			sb.WriteString("\t\t")
		}
		fmt.Fprintf(sb, "0x%02x,", b)
		if i%16 == 15 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	if len(data)%16 != 0 {
		sb.WriteString("\n")
	}
	sb.WriteString("\t},\n")
}
