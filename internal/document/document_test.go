package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/vhsolanki8600/bank-to-tally/internal/chunker"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// pdfBytes writes a minimal valid PDF with the given number of blank pages.
func pdfBytes(t *testing.T, pages int) []byte {
	t.Helper()
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	var kids bytes.Buffer
	for i := 0; i < pages; i++ {
		fmt.Fprintf(&kids, "%d 0 R ", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     []byte
		wantMIME string
		wantErr  error
	}{
		{"text", "statement.txt", []byte("page one\fpage two"), MIMEText, nil},
		{"empty", "empty.pdf", nil, "", ErrEmptyDocument},
		{"corrupt pdf", "broken.pdf", []byte("%PDF-1.4\nthis is not really a pdf"), "", ErrCorruptDocument},
		{"zip archive", "book.xlsx", []byte("PK\x03\x04\x14\x00\x00\x00\x08\x00"), "", ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(tt.file, tt.data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if doc.MIMEType() != tt.wantMIME {
				t.Errorf("MIMEType() = %q, want %q", doc.MIMEType(), tt.wantMIME)
			}
		})
	}
}

func TestOpen_Image(t *testing.T) {
	doc, err := Open("photo.png", pngBytes(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if doc.MIMEType() != "image/png" || doc.PageCount() != 1 {
		t.Errorf("got %s with %d pages", doc.MIMEType(), doc.PageCount())
	}

	p, err := doc.Slice(chunker.Whole(1))
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}
	if p.IsText() || len(p.Data) == 0 {
		t.Errorf("unexpected payload: %+v", p)
	}
	if _, err := doc.Slice(chunker.Chunk{Index: 2, FirstPage: 2, LastPage: 2}); !errors.Is(err, ErrChunkOutOfBounds) {
		t.Errorf("Slice(page 2) error = %v, want ErrChunkOutOfBounds", err)
	}
}

func TestPDF_Slice(t *testing.T) {
	doc, err := Open("statement.pdf", pdfBytes(t, 5))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if doc.MIMEType() != MIMEPDF {
		t.Fatalf("MIMEType() = %q, want %q", doc.MIMEType(), MIMEPDF)
	}
	if doc.PageCount() != 5 {
		t.Fatalf("PageCount() = %d, want 5", doc.PageCount())
	}

	chunks, err := chunker.Plan(5, 2)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	wantPages := []int{2, 2, 1}
	if len(chunks) != len(wantPages) {
		t.Fatalf("Plan() = %d chunks, want %d", len(chunks), len(wantPages))
	}

	for i, c := range chunks {
		t.Run(c.Label(), func(t *testing.T) {
			payload, err := doc.Slice(c)
			if err != nil {
				t.Fatalf("Slice() error = %v", err)
			}
			if payload.FirstPage != c.FirstPage || payload.LastPage != c.LastPage {
				t.Errorf("range = %d-%d, want %d-%d", payload.FirstPage, payload.LastPage, c.FirstPage, c.LastPage)
			}
			if payload.MIMEType != MIMEPDF || payload.IsText() {
				t.Errorf("payload type = %q, text = %v", payload.MIMEType, payload.IsText())
			}

			part, err := NewPDF("part.pdf", payload.Data)
			if err != nil {
				t.Fatalf("reopen slice: %v", err)
			}
			if part.PageCount() != wantPages[i] {
				t.Errorf("slice page count = %d, want %d", part.PageCount(), wantPages[i])
			}
		})
	}
}

func TestPDF_SliceWholeDocumentReusesBytes(t *testing.T) {
	data := pdfBytes(t, 3)
	doc, err := NewPDF("statement.pdf", data)
	if err != nil {
		t.Fatalf("NewPDF() error = %v", err)
	}
	payload, err := doc.Slice(chunker.Whole(3))
	if err != nil {
		t.Fatalf("Slice() error = %v", err)
	}
	if !bytes.Equal(payload.Data, data) {
		t.Error("whole-document slice should reuse the original bytes")
	}
	if payload.FirstPage != 1 || payload.LastPage != 3 {
		t.Errorf("range = %d-%d, want 1-3", payload.FirstPage, payload.LastPage)
	}
}

func TestText_Slice(t *testing.T) {
	doc := NewText("s.txt", "p1\fp2\fp3\fp4\fp5\f")
	if doc.PageCount() != 5 {
		t.Fatalf("PageCount() = %d, want 5", doc.PageCount())
	}

	chunks, err := chunker.Plan(doc.PageCount(), 2)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	want := []string{"p1\fp2", "p3\fp4", "p5"}
	for i, c := range chunks {
		p, err := doc.Slice(c)
		if err != nil {
			t.Fatalf("Slice(%s) error = %v", c.Label(), err)
		}
		if !p.IsText() || p.Text != want[i] {
			t.Errorf("chunk %d text = %q, want %q", c.Index, p.Text, want[i])
		}
		if p.FirstPage != c.FirstPage || p.LastPage != c.LastPage {
			t.Errorf("chunk %d range = %d-%d", c.Index, p.FirstPage, p.LastPage)
		}
	}
}

func TestText_SinglePageWithoutBreaks(t *testing.T) {
	doc := NewText("s.txt", "just one page")
	if doc.PageCount() != 1 {
		t.Errorf("PageCount() = %d, want 1", doc.PageCount())
	}
}

func TestDetectType_ExtensionFallback(t *testing.T) {
	if got := DetectType("scan.heic", []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p'}); got != "image/heic" {
		t.Errorf("DetectType() = %q, want image/heic", got)
	}
}
