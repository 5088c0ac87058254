package world

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Thibaos/a-tlas/types"
)

// World files are line oriented. Blank lines and lines starting with #
// are skipped; every other line is a keyword followed by whitespace
// separated fields:
//
//	voxel <x> <y> <z> <material> [scale]
//	hide <cx> <cy> <cz>
//
// voxel places a voxel at a global coordinate; scale defaults to 1.
// hide marks the chunk at a grid coordinate invisible.

func parseError(name string, line int, format string, args ...interface{}) error {
	return fmt.Errorf("world: %s:%d: %s", name, line, fmt.Sprintf(format, args...))
}

func parseCoord(name string, line int, field, value string) (int32, error) {
	v, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, parseError(name, line, "could not parse %s coordinate '%s'", field, value)
	}
	return int32(v), nil
}

// Load reads a world file. name is used in error messages only.
func Load(name string, r io.Reader) (*World, error) {
	w := New()

	var lineNum int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "voxel":
			if len(fields) != 5 && len(fields) != 6 {
				return nil, parseError(name, lineNum, "unsupported syntax for 'voxel'; expected 4 or 5 arguments; got %d", len(fields)-1)
			}

			var position types.IVec3
			for axis, field := range []string{"x", "y", "z"} {
				value, err := parseCoord(name, lineNum, field, fields[axis+1])
				if err != nil {
					return nil, err
				}
				position[axis] = value
			}

			material, err := strconv.ParseUint(fields[4], 10, 32)
			if err != nil {
				return nil, parseError(name, lineNum, "could not parse material index '%s'", fields[4])
			}

			scale := 1.0
			if len(fields) == 6 {
				if scale, err = strconv.ParseFloat(fields[5], 32); err != nil {
					return nil, parseError(name, lineNum, "could not parse scale '%s'", fields[5])
				}
			}

			if !inBounds(position) {
				return nil, parseError(name, lineNum, "voxel coordinate %v is outside the world volume", position)
			}
			if !w.Insert(position, Voxel{Scale: float32(scale), MaterialIndex: uint32(material)}) {
				return nil, parseError(name, lineNum, "duplicate voxel at %v", position)
			}

		case "hide":
			if len(fields) != 4 {
				return nil, parseError(name, lineNum, "unsupported syntax for 'hide'; expected 3 arguments; got %d", len(fields)-1)
			}

			var gridPosition types.IVec3
			for axis, field := range []string{"x", "y", "z"} {
				value, err := parseCoord(name, lineNum, field, fields[axis+1])
				if err != nil {
					return nil, err
				}
				gridPosition[axis] = value
			}
			w.SetChunkVisibility(gridPosition, false)

		default:
			return nil, parseError(name, lineNum, "unknown keyword '%s'", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("world: %s: %w", name, err)
	}

	return w, nil
}

// Save writes the world in the file format Load reads. Voxels are
// emitted in global coordinate order so output is deterministic.
func Save(w *World, out io.Writer) error {
	type entry struct {
		position types.IVec3
		voxel    Voxel
	}

	entries := make([]entry, 0, w.VoxelCount())
	hidden := make([]types.IVec3, 0)
	for gridPosition, c := range w.chunks {
		if !c.Visible() {
			hidden = append(hidden, gridPosition)
		}
		origin := ChunkOrigin(gridPosition)
		for localPosition, voxel := range c.voxels {
			entries = append(entries, entry{origin.Add(localPosition.IVec3()), voxel})
		}
	}

	less := func(a, b types.IVec3) bool {
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	}
	sort.Slice(entries, func(i, j int) bool { return less(entries[i].position, entries[j].position) })
	sort.Slice(hidden, func(i, j int) bool { return less(hidden[i], hidden[j]) })

	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "# %d voxels\n", len(entries))
	for _, e := range entries {
		if e.voxel.Scale == 1.0 {
			fmt.Fprintf(bw, "voxel %d %d %d %d\n", e.position[0], e.position[1], e.position[2], e.voxel.MaterialIndex)
		} else {
			fmt.Fprintf(bw, "voxel %d %d %d %d %g\n", e.position[0], e.position[1], e.position[2], e.voxel.MaterialIndex, e.voxel.Scale)
		}
	}
	for _, gridPosition := range hidden {
		fmt.Fprintf(bw, "hide %d %d %d\n", gridPosition[0], gridPosition[1], gridPosition[2])
	}
	return bw.Flush()
}
