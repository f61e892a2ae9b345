package document

import (
	"strings"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
)

// pageBreak separates pages in text exports of statements.
const pageBreak = "\f"

// Text is a plain-text statement with form-feed page breaks.
type Text struct {
	name  string
	pages []string
}

// NewText splits text on form feeds; a trailing break does not add a page.
func NewText(name, text string) *Text {
	pages := strings.Split(text, pageBreak)
	for len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return &Text{name: name, pages: pages}
}

func (t *Text) Name() string     { return t.name }
func (t *Text) MIMEType() string { return MIMEText }
func (t *Text) PageCount() int   { return len(t.pages) }

func (t *Text) Slice(c chunker.Chunk) (Payload, error) {
	if err := checkBounds(c, len(t.pages)); err != nil {
		return Payload{}, err
	}
	return Payload{
		MIMEType:  MIMEText,
		Text:      strings.Join(t.pages[c.FirstPage-1:c.LastPage], pageBreak),
		FirstPage: c.FirstPage,
		LastPage:  c.LastPage,
	}, nil
}

// Image is a single-page photo or scan of a statement.
type Image struct {
	name string
	mime string
	data []byte
}

func NewImage(name, mime string, data []byte) *Image {
	return &Image{name: name, mime: mime, data: data}
}

func (i *Image) Name() string     { return i.name }
func (i *Image) MIMEType() string { return i.mime }
func (i *Image) PageCount() int   { return 1 }

func (i *Image) Slice(c chunker.Chunk) (Payload, error) {
	if err := checkBounds(c, 1); err != nil {
		return Payload{}, err
	}
	return Payload{MIMEType: i.mime, Data: i.data, FirstPage: 1, LastPage: 1}, nil
}
