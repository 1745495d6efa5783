package storagelog

import (
	"go.uber.org/zap"
)

// headMsg is a distinctive part of all messages.
const headMsg = "romfs operation"

// Write writes message about file system operation to logger.
func Write(logger *zap.Logger, fields ...zap.Field) {
	logger.Debug(headMsg, fields...)
}

// PathField returns logger's field for file system path.
func PathField(p string) zap.Field {
	return zap.String("path", p)
}

// TargetField returns logger's field for destination path of the operation.
func TargetField(p string) zap.Field {
	return zap.String("target", p)
}

// InodeField returns logger's field for inode id.
func InodeField(id uint64) zap.Field {
	return zap.Uint64("inode", id)
}

// OpField returns logger's field for operation type.
func OpField(op string) zap.Field {
	return zap.String("op", op)
}

// SizeField returns logger's field for blob size.
func SizeField(sz uint64) zap.Field {
	return zap.Uint64("size", sz)
}
