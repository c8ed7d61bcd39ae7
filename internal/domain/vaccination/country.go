package vaccination

import (
	"fmt"
	"strings"
)

// Country is a country the dashboard can display
type Country struct {
	ISOCode string `json:"iso_code"`
	Name    string `json:"name"`
	Color   string `json:"color"` // hex RGB, used for the chart line
}

// Catalog is an ordered, immutable set of countries
type Catalog struct {
	countries []Country
	byISO     map[string]int
	byName    map[string]int
}

// NewCatalog creates a catalog from the given countries, preserving order.
// Duplicate ISO codes or names are rejected.
func NewCatalog(countries ...Country) (*Catalog, error) {
	c := &Catalog{
		countries: make([]Country, 0, len(countries)),
		byISO:     make(map[string]int, len(countries)),
		byName:    make(map[string]int, len(countries)),
	}
	for _, country := range countries {
		iso := strings.ToUpper(strings.TrimSpace(country.ISOCode))
		name := strings.TrimSpace(country.Name)
		if iso == "" || name == "" {
			return nil, fmt.Errorf("vaccination: country requires iso code and name")
		}
		if _, ok := c.byISO[iso]; ok {
			return nil, fmt.Errorf("vaccination: duplicate iso code %q", iso)
		}
		if _, ok := c.byName[strings.ToLower(name)]; ok {
			return nil, fmt.Errorf("vaccination: duplicate country name %q", name)
		}
		country.ISOCode = iso
		country.Name = name
		c.byISO[iso] = len(c.countries)
		c.byName[strings.ToLower(name)] = len(c.countries)
		c.countries = append(c.countries, country)
	}
	return c, nil
}

// DefaultCatalog returns the four countries shown on the dashboard
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(
		Country{ISOCode: "THA", Name: "Thailand", Color: "#ff0000"},
		Country{ISOCode: "AUS", Name: "Australia", Color: "#008000"},
		Country{ISOCode: "MYS", Name: "Malaysia", Color: "#0000ff"},
		Country{ISOCode: "NZL", Name: "New Zealand", Color: "#ffff00"},
	)
	return c
}

// All returns the countries in catalog order
func (c *Catalog) All() []Country {
	out := make([]Country, len(c.countries))
	copy(out, c.countries)
	return out
}

// Names returns the country names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.countries))
	for i, country := range c.countries {
		names[i] = country.Name
	}
	return names
}

// ISOCodes returns the ISO codes in catalog order
func (c *Catalog) ISOCodes() []string {
	codes := make([]string, len(c.countries))
	for i, country := range c.countries {
		codes[i] = country.ISOCode
	}
	return codes
}

// Default returns the first country of the catalog
func (c *Catalog) Default() Country {
	return c.countries[0]
}

// ByName looks up a country by display name (case-insensitive)
func (c *Catalog) ByName(name string) (Country, error) {
	idx, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Country{}, fmt.Errorf("%w: %q", ErrUnknownCountry, name)
	}
	return c.countries[idx], nil
}

// ByISO looks up a country by ISO 3166-1 alpha-3 code (case-insensitive)
func (c *Catalog) ByISO(code string) (Country, error) {
	idx, ok := c.byISO[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return Country{}, fmt.Errorf("%w: %q", ErrUnknownCountry, code)
	}
	return c.countries[idx], nil
}

// Resolve accepts either a display name or an ISO code
func (c *Catalog) Resolve(nameOrCode string) (Country, error) {
	if country, err := c.ByName(nameOrCode); err == nil {
		return country, nil
	}
	return c.ByISO(nameOrCode)
}

// Len returns the number of countries
func (c *Catalog) Len() int {
	return len(c.countries)
}
