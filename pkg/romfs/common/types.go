package common

import "fmt"

// FileType is a type of the stored blob.
type FileType uint8

const (
	// FileTypeNone marks items without a file type (system records).
	FileTypeNone FileType = 0
	// FileTypeNormal is a regular file.
	FileTypeNormal FileType = 1
	// FileTypeDirectory is a directory body.
	FileTypeDirectory FileType = 2
)

// String implements fmt.Stringer.
func (t FileType) String() string {
	switch t {
	case FileTypeNone:
		return "none"
	case FileTypeNormal:
		return "file"
	case FileTypeDirectory:
		return "directory"
	default:
		return fmt.Sprintf("type(%d)", uint8(t))
	}
}

// StatInfo groups the metadata of a stored blob.
type StatInfo struct {
	Inode    uint64   `yaml:"inode"`
	Links    uint64   `yaml:"links"`
	Size     uint64   `yaml:"size"`
	FileType FileType `yaml:"type"`
}

// IsDir checks whether the blob is a directory.
func (s StatInfo) IsDir() bool {
	return s.FileType == FileTypeDirectory
}

// MarshalYAML implements yaml.Marshaler.
func (t FileType) MarshalYAML() (any, error) {
	return t.String(), nil
}
