package export

import (
	"fmt"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/dustin/go-humanize"
	"github.com/ledongthuc/pdf"
)

// Artifact is a generated PDF archive. The file is left in place for the
// operator; nothing in this package deletes it.
type Artifact struct {
	Path     string
	Size     int64
	Messages int // messages found in the export, 0 if unknown
	Pages    int // PDF page count, 0 if unknown
}

// Summary returns a one-line description such as "1.2 MB, 340 messages, 12 pages".
func (a *Artifact) Summary() string {
	s := humanize.Bytes(uint64(a.Size))
	if a.Messages > 0 {
		s += fmt.Sprintf(", %s messages", humanize.Comma(int64(a.Messages)))
	}
	if a.Pages > 0 {
		s += fmt.Sprintf(", %d pages", a.Pages)
	}
	return s
}

// CountMessages returns the number of messages in a DiscordChatExporter HTML
// export.
func CountMessages(htmlPath string) (int, error) {
	f, err := os.Open(htmlPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", htmlPath, err)
	}
	n := doc.Find(".chatlog__message-container").Length()
	if n == 0 {
		// older exporter versions
		n = doc.Find(".chatlog__message").Length()
	}
	return n, nil
}

// CountPages returns the number of pages of a PDF file.
func CountPages(pdfPath string) (int, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.NumPage(), nil
}
