// Package dataset loads LiDAR scans from recorded sources: KITTI-style
// velodyne .bin frame dumps and, behind the pcap build tag, raw VLP-16
// packet captures.
package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/golang/geo/r3"
)

// KITTI velodyne binary format: a flat array of float32 records, four
// values per point (x, y, z, intensity), little-endian, no header.
const (
	bytesPerRecord  = 16
	floatsPerRecord = 4
)

// ReadVelodyneBin loads one scan from a KITTI velodyne .bin file. The
// intensity channel is discarded; registration only needs geometry.
func ReadVelodyneBin(path string) ([]r3.Vector, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scan %s: %w", path, err)
	}
	if len(raw)%bytesPerRecord != 0 {
		return nil, fmt.Errorf("scan %s: %d bytes is not a whole number of %d-byte records", path, len(raw), bytesPerRecord)
	}

	n := len(raw) / bytesPerRecord
	points := make([]r3.Vector, 0, n)
	for i := 0; i < n; i++ {
		off := i * bytesPerRecord
		x := math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(raw[off+4:]))
		z := math.Float32frombits(binary.LittleEndian.Uint32(raw[off+8:]))
		points = append(points, r3.Vector{X: float64(x), Y: float64(y), Z: float64(z)})
	}
	return points, nil
}

// ScanFiles lists the .bin scans in a directory in replay order. KITTI
// names frames with zero-padded indices, so lexical order is frame
// order.
func ScanFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list scans in %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".bin" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .bin scans found in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// PseudoTimestamps reconstructs normalized per-point capture times for a
// scan that carries none. A spinning sensor sweeps azimuth monotonically
// over the frame, so the horizontal angle of each return encodes when it
// was taken: yaw is mapped linearly onto [0,1].
func PseudoTimestamps(points []r3.Vector) []float64 {
	stamps := make([]float64, len(points))
	for i, p := range points {
		yaw := -math.Atan2(p.Y, p.X)
		stamps[i] = 0.5 * (yaw/math.Pi + 1.0)
	}
	return stamps
}
