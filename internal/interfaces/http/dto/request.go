package dto

// CountryQuery selects a country by name or ISO code on page routes
type CountryQuery struct {
	Country string `form:"country" binding:"omitempty,max=64,country"`
}

// CountryURI selects a country by name or ISO code on API routes
type CountryURI struct {
	Country string `uri:"country" binding:"required,max=64,country"`
}

// PublicationsQuery narrows a PubMed search. Zero values fall back to the
// configured defaults.
type PublicationsQuery struct {
	Term     string `form:"term" binding:"omitempty,max=200"`
	MaxCount int    `form:"max_count" binding:"omitempty,min=1,max=100"`
}
