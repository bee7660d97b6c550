package bookfmt

// The display font covers printable ASCII plus newline. Everything else is
// transliterated or replaced by the fallback before encoding.

const charset = "\n !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

var transliterations = map[rune]string{
	'“': `"`, // left double quote
	'”': `"`, // right double quote
	'…': "...",
	'’': "'",
	'‘': "'",
	'—': "---",
	'–': "-",
	'á': "a'",
	'é': "e'",
	'ï': "ii",
	'ç': "c,",
	'№': "No",
	'â': "a",
	'è': "e`",
	'\t':     "   ",
}

var inCharset = func() [128]bool {
	var t [128]bool
	for _, c := range charset {
		t[c] = true
	}
	return t
}()

// PrepareText maps text onto the badge charset, substituting known
// lookalikes and using fallback for anything unknown.
func PrepareText(text, fallback string) string {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r < 128 && inCharset[r] {
			out = append(out, byte(r))
			continue
		}
		if sub, ok := transliterations[r]; ok {
			out = append(out, sub...)
			continue
		}
		out = append(out, fallback...)
	}
	return string(out)
}
