package document

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
)

var disableConfigDir sync.Once

func pdfConfig() *model.Configuration {
	// pdfcpu otherwise writes a config directory under $HOME.
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PDF is a statement PDF held in memory.
type PDF struct {
	name  string
	data  []byte
	pages int
}

// NewPDF reads the page count up front so corrupt files fail before any work starts.
func NewPDF(name string, data []byte) (doc *PDF, err error) {
	// pdfcpu can panic on badly damaged cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("NewPDF: %s: %w: %v", name, ErrCorruptDocument, r)
		}
	}()

	pages, err := api.PageCount(bytes.NewReader(data), pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("NewPDF: %s: %w: %v", name, ErrCorruptDocument, err)
	}
	if pages < 1 {
		return nil, fmt.Errorf("NewPDF: %s: %w", name, ErrEmptyDocument)
	}
	return &PDF{name: name, data: data, pages: pages}, nil
}

func (p *PDF) Name() string     { return p.name }
func (p *PDF) MIMEType() string { return MIMEPDF }
func (p *PDF) PageCount() int   { return p.pages }

// Slice writes a new PDF holding only the chunk's pages, renumbered from 1.
func (p *PDF) Slice(c chunker.Chunk) (Payload, error) {
	if err := checkBounds(c, p.pages); err != nil {
		return Payload{}, fmt.Errorf("Slice: %w", err)
	}

	payload := Payload{MIMEType: MIMEPDF, FirstPage: c.FirstPage, LastPage: c.LastPage}
	if c.FirstPage == 1 && c.LastPage == p.pages {
		payload.Data = p.data
		return payload, nil
	}

	var buf bytes.Buffer
	if err := api.Trim(bytes.NewReader(p.data), &buf, []string{c.Label()}, pdfConfig()); err != nil {
		return Payload{}, fmt.Errorf("Slice: trim pages %s: %w", c.Label(), err)
	}
	payload.Data = buf.Bytes()
	return payload, nil
}
