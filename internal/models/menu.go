package models

// Menu is the single currently published menu record served as menu.json.
// Path carries a cache-busting query suffix so browsers always refetch the
// file behind it.
type Menu struct {
	Path                 string `json:"path"`
	Name                 string `json:"name,omitempty"`
	LastModificationDate string `json:"lastModificationDate,omitempty"`
}
