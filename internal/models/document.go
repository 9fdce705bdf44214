package models

import (
	"path"
	"strings"
)

// FileKind classifies a submitted attachment by what it publishes.
type FileKind int

const (
	KindUnsupported FileKind = iota
	KindMenuPhoto
	KindMenuFile
	KindTableFile
)

// String returns a stable label used in logs and metrics.
func (k FileKind) String() string {
	switch k {
	case KindMenuPhoto:
		return "menu_photo"
	case KindMenuFile:
		return "menu_file"
	case KindTableFile:
		return "table_file"
	default:
		return "unsupported"
	}
}

var menuExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".heic": true,
	".pdf":  true,
}

// Document is one attachment submitted through the chat, identified by the
// transport file id and the original filename.
type Document struct {
	FileID string
	Name   string
}

// Kind classifies the document by its filename extension. Extension matching
// is case-insensitive; the filename itself stays untouched.
func (d Document) Kind() FileKind {
	ext := d.Ext()
	switch {
	case menuExtensions[ext]:
		return KindMenuFile
	case ext == ".xlsx":
		return KindTableFile
	default:
		return KindUnsupported
	}
}

// Ext returns the lower-cased filename extension including the dot.
func (d Document) Ext() string {
	return strings.ToLower(path.Ext(d.Name))
}
