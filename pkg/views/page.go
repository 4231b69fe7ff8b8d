package views

import (
	"context"

	"github.com/mazmed/portal/pkg/composables"
)

const SiteTitle = "Maz-Med Portal"

// Header is the data shared by every layout render.
type Header struct {
	SiteTitle     string
	Authenticated bool
	AccountName   string
	TenantID      string
	TenantName    string
}

type Page struct {
	Title   string
	Header  Header
	Flash   *composables.Flash
	Content any
}

// NewPage fills the layout header from the request context.
func NewPage(ctx context.Context, title string, content any) *Page {
	h := Header{SiteTitle: SiteTitle}
	if ident, err := composables.UseIdentity(ctx); err == nil {
		h.Authenticated = true
		h.AccountName = ident.DisplayName()
	}
	if t, ok := composables.UseTenant(ctx); ok {
		h.TenantID = t.ID()
		h.TenantName = t.Name()
	}
	if title == "" {
		title = SiteTitle
	}
	return &Page{Title: title, Header: h, Content: content}
}

func (p *Page) WithFlash(f *composables.Flash) *Page {
	p.Flash = f
	return p
}
