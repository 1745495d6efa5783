package common

import "errors"

// ErrNoSpace MUST be returned when there is no space to allocate an item even
// after compaction.
var ErrNoSpace = errors.New("no free space")

// ErrNotFound MUST be returned when an inode id or a path can not be resolved.
var ErrNotFound = errors.New("not found")

// ErrInvalidArgument MUST be returned on requests which can never succeed,
// like oversized writes or non-recursive removal of non-empty directories.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotDirectory is returned when a path component resolves to a regular
// file where a directory is expected.
var ErrNotDirectory = errors.New("not a directory")

// ErrNameTooLong is returned for path components longer than the name limit.
var ErrNameTooLong = errors.New("file name too long")

// ErrCorrupted MUST be returned when on-image structures are inconsistent,
// e.g. a BST cycle or a broken item list.
var ErrCorrupted = errors.New("storage structure is corrupted")

// ErrOutOfBounds is returned when an offset or a size points outside the
// buffer.
var ErrOutOfBounds = errors.New("out of buffer bounds")
