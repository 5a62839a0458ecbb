// internal/seed/slug.go
//
// Slug derivation for fixtures that omit one.
//
// Rules
// -----
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one "-".  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Trim leading and trailing "-".
// 4. Cap at 100 bytes.
//
// An empty result stays empty so fixture validation can reject it.
package seed

import "strings"

const maxSlug = 100

// Slugify converts text into lower-kebab ASCII.
func Slugify(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastWasDash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlug {
		slug = strings.TrimRight(slug[:maxSlug], "-")
	}
	return slug
}

// deriveSlugs fills empty slugs from the display names beside them.  A
// category without a name takes its title.
func (f *Fixture) deriveSlugs() {
	if f.Site.Slug == "" {
		f.Site.Slug = Slugify(firstOf(f.Site.Name, f.Site.Title))
	}
	if f.Category.Name == "" {
		f.Category.Name = f.Category.Title
	}
	if f.Category.Slug == "" {
		f.Category.Slug = Slugify(firstOf(f.Category.Name, f.Category.Title))
	}
	if f.Item.Slug == "" {
		f.Item.Slug = Slugify(f.Item.Title)
	}
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
