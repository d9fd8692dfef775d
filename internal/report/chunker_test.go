package report

import (
	"fmt"
	"strings"
	"testing"
)

func makeBlocks(header, units int) []Block {
	blocks := make([]Block, 0, header+units)
	if header > 0 {
		blocks = append(blocks, Header("Resumo"))
		for i := 1; i < header; i++ {
			blocks = append(blocks, Context(fmt.Sprintf("h%d", i)))
		}
	}
	for i := 0; i < units; i++ {
		blocks = append(blocks, Section(fmt.Sprintf("item %d", i)))
	}
	return blocks
}

func TestChunkSinglePageUnannotated(t *testing.T) {
	t.Parallel()
	blocks := makeBlocks(3, 10)
	pages := Chunk(blocks, 3, 48)
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	if got := pages[0].Blocks[0].Text.Text; got != "Resumo" {
		t.Fatalf("single page must not be annotated, caption = %q", got)
	}
	if len(pages[0].Blocks) != 13 {
		t.Fatalf("page has %d blocks, want 13", len(pages[0].Blocks))
	}
}

func TestChunkPageCountFormula(t *testing.T) {
	t.Parallel()
	tests := []struct {
		units, header, cap int
	}{
		{10, 3, 48},
		{45, 3, 48},
		{46, 3, 48},
		{120, 3, 48},
		{200, 1, 10},
		{90, 0, 48},
		{47, 2, 48},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("u%d_h%d_c%d", tt.units, tt.header, tt.cap), func(t *testing.T) {
			t.Parallel()
			blocks := makeBlocks(tt.header, tt.units)
			pages := Chunk(blocks, tt.header, tt.cap)

			total := len(blocks)
			want := 1
			if total > tt.cap {
				per := tt.cap - tt.header
				want = (tt.units + per - 1) / per
			}
			if len(pages) != want {
				t.Fatalf("pages = %d, want %d", len(pages), want)
			}
			for i, p := range pages {
				if len(p.Blocks) > tt.cap {
					t.Fatalf("page %d has %d blocks, cap %d", i, len(p.Blocks), tt.cap)
				}
			}
		})
	}
}

func TestChunkScenario120Units(t *testing.T) {
	t.Parallel()
	blocks := makeBlocks(3, 120)
	pages := Chunk(blocks, 3, 48)

	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	sizes := []int{48, 48, 33}
	for i, p := range pages {
		if len(p.Blocks) != sizes[i] {
			t.Fatalf("page %d has %d blocks, want %d", i+1, len(p.Blocks), sizes[i])
		}
		// every page re-seeded with the 3-block header
		if p.Blocks[0].Type != "header" || p.Blocks[1].Type != "context" || p.Blocks[2].Type != "context" {
			t.Fatalf("page %d does not start with the header: %+v", i+1, p.Blocks[:3])
		}
		wantCaption := fmt.Sprintf("Resumo (%d/3)", i+1)
		if got := p.Blocks[0].Text.Text; got != wantCaption {
			t.Fatalf("page %d caption = %q, want %q", i+1, got, wantCaption)
		}
		if p.Fallback != wantCaption {
			t.Fatalf("page %d fallback = %q, want %q", i+1, p.Fallback, wantCaption)
		}
	}
}

func TestChunkDoesNotAliasHeaderText(t *testing.T) {
	t.Parallel()
	blocks := makeBlocks(3, 120)
	pages := Chunk(blocks, 3, 48)

	// Annotating one page must not leak into another (or the input).
	if blocks[0].Text.Text != "Resumo" {
		t.Fatalf("input header mutated: %q", blocks[0].Text.Text)
	}
	if pages[0].Blocks[0].Text.Text == pages[1].Blocks[0].Text.Text {
		t.Fatalf("pages share the same caption: %q", pages[0].Blocks[0].Text.Text)
	}
}

func TestTruncRunes(t *testing.T) {
	t.Parallel()
	if got := TruncRunes("épico épico", 5); got != "épico…" {
		t.Fatalf("TruncRunes = %q", got)
	}
	if got := TruncRunes("abc", 5); got != "abc" {
		t.Fatalf("TruncRunes should not touch short strings, got %q", got)
	}
	if !strings.HasSuffix(TruncRunes(strings.Repeat("x", 100), 10), "…") {
		t.Fatal("expected ellipsis suffix")
	}
}
