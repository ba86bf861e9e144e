package rendering

import (
	"io"

	"github.com/jonathan/portfolio/internal/types"
)

// Social card dimensions used by OpenGraph and Twitter previews.
const (
	OGImageWidth  = 1200
	OGImageHeight = 630
)

// OGCard renders the standalone HTML document that is captured as the
// social preview image.
type OGCard struct {
	page *Page
}

// NewOGCard parses the built-in card template.
func NewOGCard() (*OGCard, error) {
	tmpl, err := parseTemplate("og", "templates/og.html.tmpl", "")
	if err != nil {
		return nil, err
	}
	return &OGCard{page: &Page{tmpl: tmpl}}, nil
}

// Render writes the card for resume to w.
func (c *OGCard) Render(w io.Writer, resume *types.Resume) error {
	return c.page.Render(w, resume, "")
}
