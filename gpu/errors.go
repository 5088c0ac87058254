package gpu

import "errors"

var (
	ErrWaitTimeout      = errors.New("gpu: wait timed out")
	ErrClosed           = errors.New("gpu: resources released")
	ErrUnknownResource  = errors.New("gpu: unknown resource id")
	ErrBufferOverflow   = errors.New("gpu: buffer access outside allocated range")
	ErrNotBuilt         = errors.New("gpu: structure update requires a prior build")
	ErrWrongStructure   = errors.New("gpu: geometry does not match structure type")
	ErrScratchTooSmall  = errors.New("gpu: scratch buffer smaller than reported build size")
	ErrStorageTooSmall  = errors.New("gpu: storage buffer smaller than reported structure size")
	ErrMissingGeometry  = errors.New("gpu: build geometry info carries no geometry")
	ErrInstanceOverflow = errors.New("gpu: primitive count exceeds instance buffer capacity")
)
