// Package bookfmt reads and writes the compressed book container carried on
// the badge filesystem. A container holds an info string, a 512-byte token
// table and a nav tree whose leaves are token-compressed text.
package bookfmt

import (
	"encoding/binary"

	"badge-go/errcode"
)

// Token ids are bytes; the table holds 256 entries of two bytes each.
// Singles are stored as (char, 0), digram rules as (a, b) with b != 0.
const (
	tableEntries = 256
	TableSize    = tableEntries * 2

	// chunkDelim separates leaf chunks in the working token sequence.
	// It is never written to the wire.
	chunkDelim = 300
)

// Node is one entry of the nav tree. A node is either a branch (Children)
// or a leaf (Text).
type Node struct {
	Name     string
	Text     string
	Children []Node
}

func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Archive is a decoded container.
type Archive struct {
	Info string
	Root []Node
}

// Table expands token ids back into characters.
type Table struct {
	rules [tableEntries][2]byte
}

// Expand decompresses one chunk of token ids. Expansion is iterative; a
// corrupt table that loops is cut off by a work limit instead of recursing.
func (t *Table) Expand(chunk []byte) (string, error) {
	var out []byte
	var stack []byte
	const maxWork = 1 << 22

	work := 0
	for _, id := range chunk {
		stack = append(stack[:0], id)
		for len(stack) > 0 {
			if work++; work > maxWork {
				return "", errcode.InvalidPayload
			}
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			r := t.rules[id]
			if r[1] == 0 {
				out = append(out, r[0])
				continue
			}
			// Digram: expand a before b.
			stack = append(stack, r[1], r[0])
		}
	}
	return string(out), nil
}

// -----------------------------------------------------------------------------
// Decode
// -----------------------------------------------------------------------------

// Decode parses a container produced by Encode (or the original toolchain).
func Decode(data []byte) (*Archive, error) {
	info, rest, err := readBlock(data)
	if err != nil {
		return nil, err
	}
	tbl, rest, err := readBlock(rest)
	if err != nil {
		return nil, err
	}
	if len(tbl) != TableSize {
		return nil, errcode.InvalidPayload
	}
	nav, _, err := readBlock(rest)
	if err != nil {
		return nil, err
	}

	var t Table
	for i := 0; i < tableEntries; i++ {
		t.rules[i][0] = tbl[2*i]
		t.rules[i][1] = tbl[2*i+1]
	}

	root, err := decodeList(nav, &t)
	if err != nil {
		return nil, err
	}
	return &Archive{Info: string(info), Root: root}, nil
}

func readBlock(data []byte) (block, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, errcode.InvalidPayload
	}
	n := binary.LittleEndian.Uint32(data)
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, errcode.InvalidPayload
	}
	return data[:n], data[n:], nil
}

// Nav node kinds on the wire.
const (
	kindList       = '0'
	kindText       = '1'
	kindCompressed = '2'
)

func decodeList(data []byte, t *Table) ([]Node, error) {
	var nodes []Node
	for len(data) > 0 {
		kind := data[0]
		data = data[1:]

		name, rest, err := readBlock(data)
		if err != nil {
			return nil, err
		}
		body, rest, err := readBlock(rest)
		if err != nil {
			return nil, err
		}
		data = rest

		n := Node{Name: string(name)}
		switch kind {
		case kindList:
			n.Children, err = decodeList(body, t)
			if err != nil {
				return nil, err
			}
		case kindText:
			n.Text = string(body)
		case kindCompressed:
			n.Text, err = t.Expand(body)
			if err != nil {
				return nil, err
			}
		default:
			return nil, errcode.InvalidPayload
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// -----------------------------------------------------------------------------
// Encode
// -----------------------------------------------------------------------------

// Encode compresses every leaf of root and assembles the container.
func Encode(a *Archive) ([]byte, error) {
	leaves := collectLeaves(a.Root)
	table, chunks, err := compress(leaves)
	if err != nil {
		return nil, err
	}

	nav := encodeList(a.Root, &chunks)

	var out []byte
	out = appendBlock(out, []byte(a.Info))
	out = appendBlock(out, table)
	out = appendBlock(out, nav)
	return out, nil
}

func appendBlock(dst, block []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(block)))
	return append(dst, block...)
}

func collectLeaves(nodes []Node) []string {
	var out []string
	for i := range nodes {
		if nodes[i].IsLeaf() {
			out = append(out, nodes[i].Text)
		} else {
			out = append(out, collectLeaves(nodes[i].Children)...)
		}
	}
	return out
}

// encodeList serializes nodes depth-first, consuming compressed chunks in
// the same leaf order collectLeaves produced them.
func encodeList(nodes []Node, chunks *[][]byte) []byte {
	var out []byte
	for i := range nodes {
		n := &nodes[i]
		if n.IsLeaf() {
			out = append(out, kindCompressed)
			out = appendBlock(out, []byte(n.Name))
			out = appendBlock(out, (*chunks)[0])
			*chunks = (*chunks)[1:]
			continue
		}
		body := encodeList(n.Children, chunks)
		out = append(out, kindList)
		out = appendBlock(out, []byte(n.Name))
		out = appendBlock(out, body)
	}
	return out
}

// compress runs the byte-pair loop over all leaves at once so the token
// table is shared, then splits the sequence back into per-leaf chunks.
func compress(leaves []string) ([]byte, [][]byte, error) {
	// Working sequence with delimiters after every leaf.
	var seq []uint16
	present := [256]bool{}
	for _, leaf := range leaves {
		for i := 0; i < len(leaf); i++ {
			c := leaf[i]
			if c == 0 {
				return nil, nil, errcode.InvalidParams
			}
			present[c] = true
			seq = append(seq, uint16(c))
		}
		seq = append(seq, chunkDelim)
	}

	// Initial singles, sorted, with NUL first as entry zero.
	var singles []byte
	singles = append(singles, 0)
	for c := 1; c < 256; c++ {
		if present[c] {
			singles = append(singles, byte(c))
		}
	}
	charToID := map[byte]uint16{}
	for i, c := range singles {
		charToID[c] = uint16(i)
	}
	for i := range seq {
		if seq[i] != chunkDelim {
			seq[i] = charToID[byte(seq[i])]
		}
	}

	// Byte-pair loop: replace the most frequent digram until the table is
	// full or nothing repeats.
	var rules [][2]uint16
	for len(singles)+len(rules) < tableEntries {
		bestA, bestB, bestCount := uint16(0), uint16(0), 0
		counts := map[[2]uint16]int{}
		for i := 0; i+1 < len(seq); i++ {
			a, b := seq[i], seq[i+1]
			if a == chunkDelim || b == chunkDelim {
				continue
			}
			k := [2]uint16{a, b}
			counts[k]++
			if counts[k] > bestCount {
				bestCount = counts[k]
				bestA, bestB = a, b
			}
		}
		if bestCount < 2 {
			break
		}

		newID := uint16(len(singles) + len(rules))
		rules = append(rules, [2]uint16{bestA, bestB})

		out := seq[:0]
		i := 0
		for i < len(seq) {
			if i+1 < len(seq) && seq[i] == bestA && seq[i+1] == bestB {
				out = append(out, newID)
				i += 2
			} else {
				out = append(out, seq[i])
				i++
			}
		}
		seq = out
	}

	// Pack the 512-byte table. Unused tail entries stay (0,0).
	table := make([]byte, TableSize)
	for i, c := range singles {
		table[2*i] = c
	}
	for i, r := range rules {
		off := 2 * (len(singles) + i)
		table[off] = byte(r[0])
		table[off+1] = byte(r[1])
	}

	// Split back into per-leaf chunks.
	chunks := make([][]byte, 0, len(leaves))
	cur := []byte{}
	for _, id := range seq {
		if id == chunkDelim {
			chunks = append(chunks, cur)
			cur = []byte{}
			continue
		}
		cur = append(cur, byte(id))
	}
	if len(chunks) != len(leaves) {
		return nil, nil, errcode.Error
	}
	return table, chunks, nil
}
