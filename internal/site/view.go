package site

import (
	"github.com/yanizio/frontdoor/internal/content"
	"github.com/yanizio/frontdoor/internal/store"
)

// DateLayout formats item dates on the home page.
const DateLayout = "Jan 2, 2006"

// Category is one category link.
type Category struct {
	ID    string
	Label string
}

// Item is one entry of the latest-items list.
type Item struct {
	ID    string
	Title string
	URL   string // empty when the item has no link
	Date  string // empty when no date parses
}

// Home is the view model of a tenant home page.
type Home struct {
	Host            string
	Title           string
	Description     string
	MetaTitle       string
	MetaDescription string
	MetaKeywords    string
	Categories      []Category
	Items           []Item
}

// NewHome applies the display chains to a site and its content.
func NewHome(host string, s store.Record, p content.Page) Home {
	h := Home{
		Host:            host,
		Title:           Title(s, host),
		Description:     Description(s),
		MetaTitle:       MetaTitle(s, host),
		MetaDescription: MetaDescription(s),
		MetaKeywords:    MetaKeywords(s),
		Categories:      make([]Category, 0, len(p.Categories)),
		Items:           make([]Item, 0, len(p.Items)),
	}
	for _, c := range p.Categories {
		h.Categories = append(h.Categories, Category{ID: c.ID(), Label: CategoryLabel(c)})
	}
	for _, i := range p.Items {
		it := Item{ID: i.ID(), Title: ItemTitle(i), URL: i.FirstNonEmpty("url")}
		if t, ok := ItemDate(i); ok {
			it.Date = t.Format(DateLayout)
		}
		h.Items = append(h.Items, it)
	}
	return h
}
