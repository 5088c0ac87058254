package gpu

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Buffer usage flags. The software executor only validates that a usage
// was declared; they exist so call sites document intent the same way a
// real device API would require.
type BufferUsage uint16

const (
	UsageStorage BufferUsage = 1 << iota
	UsageShaderDeviceAddress
	UsageStructureStorage
	UsageStructureBuildInput
	UsageTransferDst
	UsageVertex
)

// Unique handle of a buffer owned by a Resources instance.
type BufferID uint32

// A host-visible memory allocation. Buffers are not internally locked;
// exclusive write access is the caller's protocol obligation.
type Buffer struct {
	id    BufferID
	name  string
	usage BufferUsage
	data  []byte
}

// Get buffer id.
func (b *Buffer) ID() BufferID {
	return b.id
}

// Get buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// Get allocated size in bytes.
func (b *Buffer) Size() int {
	return len(b.data)
}

// Get the host-visible mapping of the buffer memory.
func (b *Buffer) HostMap() []byte {
	return b.data
}

// Write slice data into the buffer at the given byte offset. The behavior
// of this method is undefined if a non-slice argument is passed or the
// argument does not use contiguous memory.
func (b *Buffer) WriteData(data interface{}, offset int) error {
	dataPtr, dataLen := getSliceData(data)
	if dataLen == 0 {
		return nil
	}

	if offset < 0 || offset+dataLen > len(b.data) {
		return fmt.Errorf("%w: (%s) writing %d bytes at offset %d into %d bytes", ErrBufferOverflow, b.name, dataLen, offset, len(b.data))
	}

	src := unsafe.Slice((*byte)(dataPtr), dataLen)
	copy(b.data[offset:], src)

	return nil
}

// Read buffer contents into the supplied host slice. If size is <= 0 the
// entire buffer is read. Both offsets are specified in bytes.
func (b *Buffer) ReadData(srcOffset, dstOffset, size int, hostBuffer interface{}) error {
	if size <= 0 {
		size = len(b.data)
	}

	dataPtr, dataLen := getSliceData(hostBuffer)

	if srcOffset < 0 || srcOffset+size > len(b.data) {
		return fmt.Errorf("%w: (%s) read range [%d, %d) outside buffer of size %d", ErrBufferOverflow, b.name, srcOffset, srcOffset+size, len(b.data))
	}
	if dstOffset < 0 || dstOffset+size > dataLen {
		return fmt.Errorf("%w: (%s) host buffer of size %d cannot fit %d bytes at offset %d", ErrBufferOverflow, b.name, dataLen, size, dstOffset)
	}

	dst := unsafe.Slice((*byte)(dataPtr), dataLen)
	copy(dst[dstOffset:], b.data[srcOffset:srcOffset+size])

	return nil
}

// View the buffer memory as a slice of instance records.
func (b *Buffer) InstanceRecords() []InstanceRecord {
	count := len(b.data) / InstanceSize
	if count == 0 {
		return nil
	}
	return unsafe.Slice((*InstanceRecord)(unsafe.Pointer(&b.data[0])), count)
}

// Given an interface{} containing a slice return a pointer to its data and
// its length in bytes.
func getSliceData(data interface{}) (unsafe.Pointer, int) {
	reflVal := reflect.ValueOf(data)

	if reflVal.Kind() != reflect.Slice {
		panic("getSliceData: this function only supports slices")
	}

	sliceElemCount := reflVal.Len()
	if sliceElemCount == 0 {
		return nil, 0
	}

	return unsafe.Pointer(reflVal.Index(0).Addr().Pointer()),
		sliceElemCount * int(reflect.TypeOf(data).Elem().Size())
}
