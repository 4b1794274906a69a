package dataset

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Velodyne VLP-16 data packet layout (1206-byte UDP payload):
// 12 data blocks of 100 bytes each, then a 4-byte timestamp and a
// 2-byte factory field. Each block is a 2-byte flag (0xFFEE), a 2-byte
// azimuth in 0.01-degree units, and 32 channel records of 3 bytes
// (2-byte distance in 2mm units + 1-byte reflectivity). The 32 records
// are two consecutive firing sequences of the 16 lasers.
const (
	vlp16PacketSize     = 1206
	vlp16BlocksPerPkt   = 12
	vlp16BlockSize      = 100
	vlp16ChannelsPerBlk = 32
	vlp16BytesPerChan   = 3
	vlp16LaserCount     = 16

	// 0xFFEE on the wire reads as 0xEEFF little-endian.
	vlp16BlockFlag = 0xEEFF

	vlp16AzimuthResolution  = 0.01  // degrees per LSB
	vlp16DistanceResolution = 0.002 // meters per LSB
)

// vlp16Elevations holds the fixed vertical angles of the 16 lasers in
// firing order, in degrees.
var vlp16Elevations = [vlp16LaserCount]float64{
	-15, 1, -13, 3, -11, 5, -9, 7, -7, 9, -5, 11, -3, 13, -1, 15,
}

// VLP16Return is a single laser return with the block azimuth it was
// measured at, used downstream for frame splitting and timestamping.
type VLP16Return struct {
	Point   r3.Vector
	Azimuth float64 // degrees, [0, 360)
}

// ParseVLP16Packet decodes one VLP-16 data packet into Cartesian
// returns. Zero-distance records (no laser return) are skipped.
func ParseVLP16Packet(payload []byte) ([]VLP16Return, error) {
	if len(payload) != vlp16PacketSize {
		return nil, fmt.Errorf("invalid VLP-16 packet size: expected %d, got %d", vlp16PacketSize, len(payload))
	}

	returns := make([]VLP16Return, 0, vlp16BlocksPerPkt*vlp16ChannelsPerBlk)
	for blockIdx := 0; blockIdx < vlp16BlocksPerPkt; blockIdx++ {
		block := payload[blockIdx*vlp16BlockSize : (blockIdx+1)*vlp16BlockSize]

		if flag := binary.LittleEndian.Uint16(block[0:2]); flag != vlp16BlockFlag {
			return nil, fmt.Errorf("block %d: invalid flag 0x%04X", blockIdx, flag)
		}
		azimuth := float64(binary.LittleEndian.Uint16(block[2:4])) * vlp16AzimuthResolution

		off := 4
		for ch := 0; ch < vlp16ChannelsPerBlk; ch++ {
			dist := binary.LittleEndian.Uint16(block[off : off+2])
			off += vlp16BytesPerChan
			if dist == 0 {
				continue
			}

			distance := float64(dist) * vlp16DistanceResolution
			elevationRad := vlp16Elevations[ch%vlp16LaserCount] * math.Pi / 180.0
			azimuthRad := azimuth * math.Pi / 180.0

			cosEl := math.Cos(elevationRad)
			returns = append(returns, VLP16Return{
				Point: r3.Vector{
					X: distance * cosEl * math.Sin(azimuthRad),
					Y: distance * cosEl * math.Cos(azimuthRad),
					Z: distance * math.Sin(elevationRad),
				},
				Azimuth: azimuth,
			})
		}
	}
	return returns, nil
}

// FrameAssembler groups per-packet returns into full revolutions. A
// frame ends when the azimuth wraps past 360 back toward zero.
type FrameAssembler struct {
	returns     []VLP16Return
	lastAzimuth float64
	started     bool
}

// Add folds one packet's returns into the current frame. When the scan
// completes a revolution it returns the finished frame with normalized
// per-point timestamps and true; otherwise ok is false.
func (a *FrameAssembler) Add(returns []VLP16Return) (points []r3.Vector, timestamps []float64, ok bool) {
	for _, r := range returns {
		if a.started && r.Azimuth < a.lastAzimuth-180 {
			points, timestamps = a.finish()
			ok = true
		}
		a.returns = append(a.returns, r)
		a.lastAzimuth = r.Azimuth
		a.started = true
	}
	return points, timestamps, ok
}

// Flush returns whatever partial frame remains, e.g. at end of capture.
func (a *FrameAssembler) Flush() ([]r3.Vector, []float64, bool) {
	if len(a.returns) == 0 {
		return nil, nil, false
	}
	points, timestamps := a.finish()
	return points, timestamps, true
}

// finish converts the buffered revolution into a frame. Timestamps come
// from each return's position in the azimuth sweep, normalized to [0,1]
// across the frame.
func (a *FrameAssembler) finish() ([]r3.Vector, []float64) {
	frame := a.returns
	a.returns = nil
	a.started = false

	points := make([]r3.Vector, len(frame))
	stamps := make([]float64, len(frame))

	first := frame[0].Azimuth
	span := 0.0
	prev := first
	unwrapped := make([]float64, len(frame))
	for i, r := range frame {
		az := r.Azimuth
		if az < prev-180 {
			span += 360
		}
		unwrapped[i] = az - first + span
		prev = az
	}
	total := unwrapped[len(frame)-1]

	for i, r := range frame {
		points[i] = r.Point
		if total > 0 {
			stamps[i] = unwrapped[i] / total
		}
	}
	return points, stamps
}
