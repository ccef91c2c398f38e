package domain

// Feature is one votable entry from the catalog. Immutable once loaded
// for the session.
type Feature struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Catalog is the ordered list of votable features for a session.
// Display order is load order.
type Catalog []Feature

func (c Catalog) ByID(id string) (Feature, bool) {
	for _, f := range c {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}
