package terrain

import "errors"

// TER format errors.
var (
	ErrInvalidMagic       = errors.New("invalid TER magic: expected 'TERR'")
	ErrUnsupportedVersion = errors.New("unsupported TER version")
	ErrInvalidBounds      = errors.New("invalid TER bounds")
	ErrTruncatedData      = errors.New("truncated TER data")
)

// ErrClusterAlignment is returned when a terrain size is not a positive
// multiple of its cluster size.
var ErrClusterAlignment = errors.New("terrain size must be a positive multiple of the cluster size")

// ErrNoNormalMap is returned by normal-map operations on float-height terrains.
var ErrNoNormalMap = errors.New("terrain version has no normal map")
