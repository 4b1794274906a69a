//go:build pcap
// +build pcap

package dataset

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/golang/geo/r3"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// ScanFunc receives one assembled revolution: Cartesian points plus
// normalized [0,1] per-point timestamps. Returning an error stops the
// replay.
type ScanFunc func(points []r3.Vector, timestamps []float64) error

// ReadPCAPScans replays VLP-16 packets from a capture file, assembles
// them into full revolutions, and hands each frame to emit. Only
// available when building with the 'pcap' build tag.
func ReadPCAPScans(ctx context.Context, pcapFile string, udpPort int, emit ScanFunc) error {
	handle, err := pcap.OpenOffline(pcapFile)
	if err != nil {
		return fmt.Errorf("failed to open PCAP file %s: %w", pcapFile, err)
	}
	defer handle.Close()

	filterStr := fmt.Sprintf("udp port %d", udpPort)
	if err := handle.SetBPFFilter(filterStr); err != nil {
		return fmt.Errorf("failed to set BPF filter '%s': %w", filterStr, err)
	}
	log.Printf("[dataset] PCAP BPF filter set: %s", filterStr)

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	var assembler FrameAssembler
	packetCount := 0
	frameCount := 0
	startTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[dataset] PCAP reader stopping on context cancellation (%d packets, %d frames)", packetCount, frameCount)
			return ctx.Err()
		case packet := <-packetSource.Packets():
			if packet == nil {
				// End of capture: emit the trailing partial frame.
				if points, stamps, ok := assembler.Flush(); ok {
					frameCount++
					if err := emit(points, stamps); err != nil {
						return err
					}
				}
				elapsed := time.Since(startTime)
				log.Printf("[dataset] PCAP replay complete: %d packets, %d frames in %v", packetCount, frameCount, elapsed)
				return nil
			}
			packetCount++

			udpLayer := packet.Layer(layers.LayerTypeUDP)
			if udpLayer == nil {
				continue
			}
			udp, ok := udpLayer.(*layers.UDP)
			if !ok || len(udp.Payload) == 0 {
				continue
			}

			returns, err := ParseVLP16Packet(udp.Payload)
			if err != nil {
				log.Printf("[dataset] error parsing PCAP packet %d: %v", packetCount, err)
				continue
			}

			points, stamps, done := assembler.Add(returns)
			if done {
				frameCount++
				if err := emit(points, stamps); err != nil {
					return err
				}
			}

			if packetCount%10000 == 0 {
				elapsed := time.Since(startTime)
				log.Printf("[dataset] PCAP progress: %d packets, %d frames in %v (%.0f pkt/s)",
					packetCount, frameCount, elapsed, float64(packetCount)/elapsed.Seconds())
			}
		}
	}
}
