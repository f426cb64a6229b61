package textpdf

import (
	"strings"
	"unicode/utf8"

	"github.com/trezcool/sanggar/core"
)

// Layout positions plain text on fixed size pages. Wrapping counts characters,
// it does not measure glyphs.
type Layout struct {
	PageWidth    float64 // points
	PageHeight   float64
	Margin       float64
	FontSize     float64
	LineHeight   float64
	CharsPerLine int
}

func DefaultLayout() Layout {
	return Layout{
		PageWidth:    612,
		PageHeight:   792,
		Margin:       50,
		FontSize:     11,
		LineHeight:   14,
		CharsPerLine: 90,
	}
}

// NewLayout applies the configured overrides on top of DefaultLayout.
func NewLayout(conf core.ConverterConfig) Layout {
	l := DefaultLayout()
	if conf.FontSize > 0 {
		l.FontSize = conf.FontSize
	}
	if conf.LineHeight > 0 {
		l.LineHeight = conf.LineHeight
	}
	if conf.Margin > 0 && conf.Margin*2 < l.PageHeight && conf.Margin*2 < l.PageWidth {
		l.Margin = conf.Margin
	}
	if conf.CharsPerLine > 0 {
		l.CharsPerLine = conf.CharsPerLine
	}
	return l
}

// withDefaults fills unusable fields (zero or negative sizes, margins
// eating the page) from DefaultLayout.
func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.PageWidth <= 0 {
		l.PageWidth = d.PageWidth
	}
	if l.PageHeight <= 0 {
		l.PageHeight = d.PageHeight
	}
	if l.Margin < 0 || l.Margin*2 >= l.PageWidth || l.Margin*2 >= l.PageHeight {
		l.Margin = d.Margin
	}
	if l.FontSize <= 0 {
		l.FontSize = d.FontSize
	}
	if l.LineHeight <= 0 {
		l.LineHeight = d.LineHeight
	}
	if l.CharsPerLine <= 0 {
		l.CharsPerLine = d.CharsPerLine
	}
	return l
}

// LinesPerPage is how many lines fit between the top and bottom margins.
func (l Layout) LinesPerPage() int {
	l = l.withDefaults()
	n := int((l.PageHeight - 2*l.Margin) / l.LineHeight)
	if n < 1 {
		return 1
	}
	return n
}

// Wrap breaks `text` into output lines of at most CharsPerLine characters.
// Blank source lines stay as empty lines; words longer than a line are split.
func (l Layout) Wrap(text string) []string {
	l = l.withDefaults()
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")

	var lines []string
	for _, src := range strings.Split(text, "\n") {
		words := strings.Fields(src)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, l.wrapWords(words)...)
	}
	return lines
}

func (l Layout) wrapWords(words []string) []string {
	budget := l.CharsPerLine
	var (
		lines []string
		curr  strings.Builder
		n     int // runes in curr
	)
	flush := func() {
		if n > 0 {
			lines = append(lines, curr.String())
			curr.Reset()
			n = 0
		}
	}

	for _, w := range words {
		wn := utf8.RuneCountInString(w)
		for wn > budget {
			flush()
			runes := []rune(w)
			lines = append(lines, string(runes[:budget]))
			w = string(runes[budget:])
			wn -= budget
		}
		if wn == 0 {
			continue
		}
		if n > 0 && n+1+wn > budget {
			flush()
		}
		if n > 0 {
			curr.WriteByte(' ')
			n++
		}
		curr.WriteString(w)
		n += wn
	}
	flush()
	return lines
}

// Paginate groups lines into pages of LinesPerPage lines; only the last page may be shorter.
func (l Layout) Paginate(lines []string) [][]string {
	per := l.LinesPerPage()
	pages := make([][]string, 0, (len(lines)+per-1)/per)
	for start := 0; start < len(lines); start += per {
		end := start + per
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	return pages
}
