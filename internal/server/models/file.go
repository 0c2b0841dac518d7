package models

import (
	"strconv"
	"time"
)

// FileType is the immutable kind of a node.
type FileType string

const (
	FileTypeFolder FileType = "folder"
	FileTypeFile   FileType = "file"
	FileTypeImage  FileType = "image"
)

// Valid reports whether t is one of the known node kinds.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeFolder, FileTypeFile, FileTypeImage:
		return true
	}
	return false
}

// FileNode is a folder, file or image in a user's tree.
//
// BlobKey is set iff Type is not a folder. ParentID is RootID for top-level
// nodes, otherwise the id of a folder owned by the same user.
type FileNode struct {
	ID        ID
	UserID    ID
	Name      string
	Type      FileType
	ParentID  ID
	IsPublic  bool
	BlobKey   string
	CreatedAt time.Time
}

// ThumbnailWidths lists the derivative widths generated for images.
var ThumbnailWidths = []int{500, 250, 100}

// IsThumbnailWidth reports whether w is one of ThumbnailWidths.
func IsThumbnailWidth(w int) bool {
	for _, tw := range ThumbnailWidths {
		if tw == w {
			return true
		}
	}
	return false
}

// DerivativeKey names the blob holding the width-scaled variant of blobKey.
func DerivativeKey(blobKey string, width int) string {
	return blobKey + "_" + strconv.Itoa(width)
}
