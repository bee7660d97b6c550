package ui

import "badge-go/format/bookfmt"

// The reader walks the archive's nav tree: branch nodes render as lists,
// leaves as scrollable text.
func newReaderScreen(ui *Service) Screen {
	return newNodeList(ui, "Reader", ui.book.Root, ui.menu)
}

func newNodeList(ui *Service, title string, nodes []bookfmt.Node, back func() Screen) Screen {
	items := make([]string, len(nodes))
	for i, n := range nodes {
		items[i] = n.Name
	}
	s := &listScreen{ui: ui, title: title, items: items}
	s.onSelect = func(i int) Screen {
		n := nodes[i]
		self := func() Screen { return s }
		if n.IsLeaf() {
			return &textScreen{ui: ui, text: n.Text, onBack: self}
		}
		return newNodeList(ui, n.Name, n.Children, self)
	}
	s.onBack = back
	return s
}
