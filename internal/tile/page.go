package tile

import "github.com/google/uuid"

// BlockKind is the content type of a block or layout element.
type BlockKind string

const (
	KindText        BlockKind = "text"
	KindIcon        BlockKind = "icon"
	KindWrappedText BlockKind = "wrapped-text"
)

// Block is one piece of page content bound to an element of the page layout.
type Block struct {
	Kind    BlockKind `json:"kind"`
	Element ElementID `json:"element"`
	Text    string    `json:"text,omitempty"`
	Icon    int       `json:"icon,omitempty"`
}

func TextBlock(id ElementID, text string) Block {
	return Block{Kind: KindText, Element: id, Text: text}
}

func IconBlock(id ElementID, index int) Block {
	return Block{Kind: KindIcon, Element: id, Icon: index}
}

func WrappedTextBlock(id ElementID, text string) Block {
	return Block{Kind: KindWrappedText, Element: id, Text: text}
}

// PageData is the content of one page. LayoutIndex selects one of the
// layouts registered with the tile.
type PageData struct {
	ID          uuid.UUID `json:"id"`
	LayoutIndex int       `json:"layout"`
	Blocks      []Block   `json:"blocks"`
}
