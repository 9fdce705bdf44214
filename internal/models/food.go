package models

import "time"

// FoodFile is one published table entry in food_files.json.
type FoodFile struct {
	Name                 string `json:"name"`
	Path                 string `json:"path"`
	LastModificationDate string `json:"lastModificationDate"`
}

// RemoteFile is one plain file in a remote store listing.
type RemoteFile struct {
	Name    string
	ModTime time.Time
}
