package config

import (
	"math/bits"
	"reflect"
	"strings"
	"unicode"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// Size is an unsigned integer value that represents a size in bytes. In
// config files it may be written with k/m/g suffixes, e.g. "32M" or "64 kb".
type Size uint64

// SizeHook returns a mapstructure decode hook func that converts a string to a Size.
func SizeHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeFor[Size]() {
			return data, nil
		}

		return parseSizeInBytes(cast.ToString(data)), nil
	}
}

// safeMul returns size*multiplier.
// Returns 0 if overflow is detected.
func safeMul(size uint64, multiplier uint64) uint64 {
	hi, lo := bits.Mul64(size, multiplier)
	if hi != 0 {
		return 0
	}
	return lo
}

// parseSizeInBytes converts strings like 1GB or 12 mb into an unsigned
// integer number of bytes. Both `k` and `kb` forms are allowed.
func parseSizeInBytes(sizeStr string) uint64 {
	sizeStr = strings.TrimSpace(sizeStr)
	lastChar := len(sizeStr) - 1
	multiplier := uint64(1)

	if lastChar > 0 {
		if sizeStr[lastChar] == 'b' || sizeStr[lastChar] == 'B' {
			lastChar--
		}

		switch unicode.ToLower(rune(sizeStr[lastChar])) {
		case 'k':
			multiplier = 1 << 10
		case 'm':
			multiplier = 1 << 20
		case 'g':
			multiplier = 1 << 30
		default:
			lastChar++
		}

		sizeStr = strings.TrimSpace(sizeStr[:lastChar])
	}

	return safeMul(cast.ToUint64(sizeStr), multiplier)
}
