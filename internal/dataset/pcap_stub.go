//go:build !pcap
// +build !pcap

package dataset

import (
	"context"
	"fmt"

	"github.com/golang/geo/r3"
)

// ScanFunc receives one assembled revolution: Cartesian points plus
// normalized [0,1] per-point timestamps.
type ScanFunc func(points []r3.Vector, timestamps []float64) error

// ReadPCAPScans is a stub implementation when PCAP support is disabled.
// Build with -tags=pcap to enable PCAP file replay.
func ReadPCAPScans(ctx context.Context, pcapFile string, udpPort int, emit ScanFunc) error {
	return fmt.Errorf("PCAP support not enabled: rebuild with -tags=pcap to enable PCAP file replay")
}
