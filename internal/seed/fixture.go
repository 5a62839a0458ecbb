// internal/seed/fixture.go
//
// YAML fixture describing one demo tenant.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed 1dun.yaml
var defaultFixture []byte

// Owner is the user that owns the seeded site.
type Owner struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// SiteSpec describes the seeded site.
type SiteSpec struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// CategorySpec describes the seeded category.
type CategorySpec struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"` // sort key for category lists; defaults to Title
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// ItemSpec describes the seeded item.
type ItemSpec struct {
	Slug    string `yaml:"slug"`
	Title   string `yaml:"title"`
	Excerpt string `yaml:"excerpt"`
	Content string `yaml:"content"`
}

// Fixture is the whole document.
type Fixture struct {
	Owner    Owner        `yaml:"owner"`
	Site     SiteSpec     `yaml:"site"`
	Domains  []string     `yaml:"domains"`
	Category CategorySpec `yaml:"category"`
	Item     ItemSpec     `yaml:"item"`
}

// ErrInvalidFixture wraps every validation failure.
var ErrInvalidFixture = errors.New("seed: invalid fixture")

// Default returns the embedded 1dun fixture.
func Default() (*Fixture, error) { return Parse(defaultFixture) }

// LoadFile reads and parses a fixture from disk.
func LoadFile(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes and validates a fixture.  Unknown keys are rejected and
// missing slugs are derived from names and titles.
func Parse(b []byte) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	f.deriveSlugs()
	switch {
	case f.Owner.Email == "":
		return nil, fmt.Errorf("%w: owner.email is required", ErrInvalidFixture)
	case f.Site.Slug == "":
		return nil, fmt.Errorf("%w: site.slug is required", ErrInvalidFixture)
	case len(f.Domains) == 0:
		return nil, fmt.Errorf("%w: at least one domain is required", ErrInvalidFixture)
	case f.Category.Slug == "":
		return nil, fmt.Errorf("%w: category.slug is required", ErrInvalidFixture)
	case f.Item.Slug == "":
		return nil, fmt.Errorf("%w: item.slug is required", ErrInvalidFixture)
	}
	return &f, nil
}
