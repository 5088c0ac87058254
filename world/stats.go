package world

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/Thibaos/a-tlas/gpu"
	"github.com/Thibaos/a-tlas/types"
)

func fmtSize(bytes int) string {
	units := []string{"bytes", "KB", "MB", "GB"}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%3.1f %s", size, units[unit])
}

// Stats returns a tabular breakdown of the world's occupancy and the
// instance counts it would contribute at each LOD level.
func (w *World) Stats() string {
	var buf bytes.Buffer

	voxels := w.VoxelCount()
	active := len(w.ActiveChunks())

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value", "Size"})
	table.Append([]string{"Chunks (materialized)", fmt.Sprintf("%d", len(w.chunks)), ""})
	table.Append([]string{"Chunks (active)", fmt.Sprintf("%d", active), ""})
	table.Append([]string{"Voxels", fmt.Sprintf("%d", voxels), ""})
	table.Append([]string{" ", " ", " "})

	for lod := uint32(0); lod <= 3; lod++ {
		count := len(w.Instances(lod, types.IVec3{}, 0, voxels))
		table.Append([]string{
			fmt.Sprintf("Instances at LOD %d", lod),
			fmt.Sprintf("%d", count),
			fmtSize(count * gpu.InstanceSize),
		})
	}

	table.Render()
	return buf.String()
}
