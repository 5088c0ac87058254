package gpu

import "unsafe"

// Byte size of a single instance record inside an instance buffer.
const InstanceSize = int(unsafe.Sizeof(InstanceRecord{}))

// A single entry of a top-level structure's instance array. The layout
// mirrors the hardware instance descriptor: a row-major 3x4 affine
// transform with the translation in the last column, a packed
// (customIndex, visibilityMask) word and the referenced bottom-level
// structure's device address.
type InstanceRecord struct {
	Transform          [3][4]float32
	CustomIndexAndMask uint32
	SBTOffsetAndFlags  uint32
	StructureRef       uint64
}

// Pack a 24-bit custom index and an 8-bit visibility mask into one word.
func PackUint24_8(low24, high8 uint32) uint32 {
	return (low24 & 0x00ffffff) | (high8&0xff)<<24
}

// Extract the 24-bit custom index.
func UnpackUint24(packed uint32) uint32 {
	return packed & 0x00ffffff
}

// Extract the 8-bit visibility mask.
func UnpackUint8(packed uint32) uint32 {
	return packed >> 24
}

// Build a uniform-scale instance record for the given translation.
func NewInstanceRecord(scale float32, translation [3]float32, customIndexAndMask uint32, structureRef uint64) InstanceRecord {
	return InstanceRecord{
		Transform: [3][4]float32{
			{scale, 0.0, 0.0, translation[0]},
			{0.0, scale, 0.0, translation[1]},
			{0.0, 0.0, scale, translation[2]},
		},
		CustomIndexAndMask: customIndexAndMask,
		StructureRef:       structureRef,
	}
}
