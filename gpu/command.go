package gpu

// A CommandBuffer collects recorded operations for one submission. Record
// methods validate against resource state immediately; the recorded
// closures themselves are infallible and run on the owning flight's
// executor.
type CommandBuffer struct {
	ops []func()
}

// Get the recorded operation list for submission.
func (cb *CommandBuffer) Ops() []func() {
	return cb.ops
}

// Record a structure build or update command.
func (cb *CommandBuffer) BuildAccelerationStructure(info *BuildGeometryInfo, rangeInfo BuildRangeInfo) error {
	if info.Dst == nil {
		return ErrUnknownResource
	}
	if info.Geometry.Empty() {
		return ErrMissingGeometry
	}
	if info.Geometry.StructureType() != info.Dst.Type() {
		return ErrWrongStructure
	}
	if info.Mode == BuildModeUpdate {
		src := info.Src
		if src == nil {
			src = info.Dst
		}
		if src.Generation() == 0 {
			return ErrNotBuilt
		}
	}
	if inst := info.Geometry.Instances; inst != nil && inst.Data != nil {
		need := (int(rangeInfo.PrimitiveCount) + int(rangeInfo.PrimitiveOffset)) * InstanceSize
		if need > inst.Data.Size() {
			return ErrInstanceOverflow
		}
	}
	if info.Scratch != nil {
		sizes := buildSizes(&info.Geometry, int(rangeInfo.PrimitiveCount))
		required := sizes.BuildScratchSize
		if info.Mode == BuildModeUpdate {
			required = sizes.UpdateScratchSize
		}
		if info.Scratch.Size() < required {
			return ErrScratchTooSmall
		}
	}

	dst := info.Dst
	count := rangeInfo.PrimitiveCount
	cb.ops = append(cb.ops, func() {
		dst.markBuilt(count)
	})

	return nil
}

// Record a copy of host data into a buffer. The data is snapshotted at
// record time.
func (cb *CommandBuffer) UpdateBuffer(dst *Buffer, offset int, data []byte) error {
	if offset < 0 || offset+len(data) > dst.Size() {
		return ErrStorageTooSmall
	}

	snapshot := make([]byte, len(data))
	copy(snapshot, data)

	cb.ops = append(cb.ops, func() {
		copy(dst.HostMap()[offset:], snapshot)
	})

	return nil
}

// Record a ray-trace dispatch against the bound top-level structure,
// covering the full target extent. The software executor shades the
// target with a value derived from the bound structure's build state so
// swaps remain observable without a hardware ray pipeline.
func (cb *CommandBuffer) TraceRays(target *Image, tlas *AccelerationStructure, extent [2]uint32) error {
	if tlas == nil || tlas.Type() != TopLevel {
		return ErrWrongStructure
	}
	if target == nil {
		return ErrUnknownResource
	}

	cb.ops = append(cb.ops, func() {
		gen := byte(tlas.Generation())
		count := byte(tlas.PrimitiveCount())
		target.Clear(gen, count, 0x40, 0xff)
	})

	return nil
}
