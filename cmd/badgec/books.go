package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"badge-go/format/bookfmt"
)

// Chapters longer than this are split into numbered parts so the reader never
// has to hold a whole novel-length chapter in RAM at once.
const chapterPartSize = 10000

func newBooksCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "books <dir>",
		Short: "Compile HTML book exports into a compressed container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBooks(cmd, args[0], out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "books.bin", "output file")
	return cmd
}

func runBooks(cmd *cobra.Command, dir, out string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	var root []bookfmt.Node
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".html") {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Processing", e.Name())
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return err
		}
		book, err := compileBook(data)
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name(), err)
		}
		root = append(root, book)
	}
	if len(root) == 0 {
		return fmt.Errorf("no .html files in %s", dir)
	}
	sort.Slice(root, func(i, j int) bool { return root[i].Name < root[j].Name })

	packed, err := bookfmt.Encode(&bookfmt.Archive{
		Info: "badgec books " + time.Now().Format("2006-01-02"),
		Root: root,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s size: %d\n", out, len(packed))
	return os.WriteFile(out, packed, 0o644)
}

// compileBook turns one FimFiction-style HTML export into a nav node. The
// export carries the book brief in a <header> and one <article> per chapter,
// with the chapter title in an <h1> inside the article's own header.
func compileBook(data []byte) (bookfmt.Node, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return bookfmt.Node{}, err
	}

	headers := findAll(doc, "header")
	if len(headers) == 0 {
		return bookfmt.Node{}, fmt.Errorf("no <header> element")
	}
	brief := bookfmt.PrepareText(strings.Trim(nodeText(headers[0]), "\n"), "_")
	name, _, _ := strings.Cut(brief, "\n")

	chapters := []bookfmt.Node{{Name: "= Description =", Text: brief}}
	for _, article := range findAll(doc, "article") {
		chapters = append(chapters, compileChapter(article))
	}
	return bookfmt.Node{Name: name, Children: chapters}, nil
}

func compileChapter(article *html.Node) bookfmt.Node {
	title := "?"
	if h1 := findFirst(article, "h1"); h1 != nil {
		title = bookfmt.PrepareText(strings.Trim(nodeText(h1), " \n"), "_")
	}

	// Body paragraphs, skipping anything inside the chapter's own
	// header/footer (that is where the title h1 and author notes live).
	parts := []string{""}
	for _, el := range findAll(article, "p", "h1", "h2", "h3", "h4", "h5", "h6") {
		if insideAny(el, article, "header", "footer") {
			continue
		}
		parts[len(parts)-1] += bookfmt.PrepareText("{ "+nodeText(el)+" }", "_")
		if len(parts[len(parts)-1]) < chapterPartSize {
			parts[len(parts)-1] += "\n\n"
		} else {
			parts = append(parts, "")
		}
	}

	if len(parts) == 1 {
		return bookfmt.Node{Name: title, Text: parts[0]}
	}
	children := make([]bookfmt.Node, len(parts))
	for i, text := range parts {
		children[i] = bookfmt.Node{
			Name: fmt.Sprintf("%d/%d", i+1, len(parts)),
			Text: text,
		}
	}
	return bookfmt.Node{Name: title, Children: children}
}

// ----------------------------------------------------------------------------
// HTML tree helpers
// ----------------------------------------------------------------------------

func findAll(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, t := range tags {
				if n.Data == t {
					out = append(out, n)
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, tag string) *html.Node {
	if all := findAll(n, tag); len(all) > 0 {
		return all[0]
	}
	return nil
}

// nodeText concatenates every text node under n.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// insideAny reports whether n has an ancestor with one of the given tags,
// stopping the walk at (and excluding) stop.
func insideAny(n *html.Node, stop *html.Node, tags ...string) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		for _, t := range tags {
			if p.Data == t {
				return true
			}
		}
	}
	return false
}
