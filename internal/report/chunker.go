package report

import "fmt"

// Page is one deliverable webhook document: a plain-text fallback plus a
// block sequence within the platform's block-count ceiling.
type Page struct {
	Fallback string
	Blocks   []Block
}

// Chunk splits an over-long block sequence into pages of at most maxPerPage
// blocks. The first headerLen blocks are the header: they are repeated at
// the top of every page and excluded from the rolling count. A whole block
// is never split, so a display unit always lands on exactly one page.
//
// A sequence that already fits is returned as a single unannotated page;
// when split into N>1 pages each page's caption is suffixed with "(i/N)".
func Chunk(blocks []Block, headerLen, maxPerPage int) []Page {
	if len(blocks) == 0 {
		return nil
	}
	if headerLen < 0 {
		headerLen = 0
	}
	if headerLen > len(blocks) {
		headerLen = len(blocks)
	}
	if maxPerPage <= headerLen {
		// Degenerate cap; still make progress one block at a time.
		maxPerPage = headerLen + 1
	}

	if len(blocks) <= maxPerPage {
		return []Page{newPage(blocks)}
	}

	header := blocks[:headerLen]
	pages := make([]Page, 0, 2)
	cur := append([]Block(nil), header...)
	for _, b := range blocks[headerLen:] {
		if len(cur)+1 > maxPerPage {
			pages = append(pages, newPage(cur))
			cur = append([]Block(nil), header...)
		}
		cur = append(cur, b)
	}
	if len(cur) > headerLen {
		pages = append(pages, newPage(cur))
	}

	for i := range pages {
		annotate(&pages[i], i+1, len(pages))
	}
	return pages
}

func newPage(blocks []Block) Page {
	return Page{Blocks: blocks, Fallback: captionOf(blocks)}
}

func captionOf(blocks []Block) string {
	for _, b := range blocks {
		if b.Text != nil && b.Text.Text != "" {
			return b.Text.Text
		}
	}
	return ""
}

// annotate suffixes the page's caption with its index. Header blocks are
// shared across pages, so the Text is copied before mutation.
func annotate(p *Page, idx, total int) {
	for i, b := range p.Blocks {
		if b.Type != "header" || b.Text == nil {
			continue
		}
		t := *b.Text
		t.Text = fmt.Sprintf("%s (%d/%d)", t.Text, idx, total)
		b.Text = &t
		p.Blocks[i] = b
		p.Fallback = t.Text
		return
	}
}
