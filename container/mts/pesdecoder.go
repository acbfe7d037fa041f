/*
NAME
  pesdecoder.go - per-PID state machine that accumulates TS packet payloads
  belonging to the same PES stream into whole PES packets.

DESCRIPTION
  See Readme.md

AUTHORS
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"fmt"
	"os"
	"strings"

	"github.com/ausocean/utils/logging"
)

// PesPacketDecoder accumulates TsPes/TsRaw payloads, one in-flight PES
// packet per PID, emitting a PesPacket once a stream's declared length is
// reached or a new PES begins on the same PID.
type PesPacketDecoder struct {
	pesPackets         map[Pid]*partialPesPacket
	ignoreHeaderLength bool
	eos                bool
	log                logging.Logger
}

// NewPesPacketDecoder constructs a PesPacketDecoder. TS_IGNORE_HEADER_LENGTH
// is sampled once here, matching the donor's time.Now()-at-construction
// idiom in TimeBasedPSI; IgnoreHeaderLength(true) overrides it.
func NewPesPacketDecoder(options ...func(*PesPacketDecoder) error) (*PesPacketDecoder, error) {
	d := &PesPacketDecoder{
		pesPackets:         make(map[Pid]*partialPesPacket),
		ignoreHeaderLength: strings.EqualFold(os.Getenv("TS_IGNORE_HEADER_LENGTH"), "true"),
		log:                defaultLogger(),
	}
	for _, opt := range options {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// ProcessTsPacket feeds one TS packet's payload into the reassembly state
// machine, returning a completed PesPacket when one becomes available.
func (d *PesPacketDecoder) ProcessTsPacket(p *TsPacket) (*PesPacket, error) {
	switch payload := p.Payload.(type) {
	case TsPes:
		return d.startPartial(p.Header.Pid, payload.Pes)
	case TsRaw:
		return d.appendPartial(p.Header.Pid, payload.Data)
	default:
		return nil, nil
	}
}

// startPartial begins a new in-flight PES packet for pid, evicting (and
// returning) any prior partial still in flight on that PID.
func (d *PesPacketDecoder) startPartial(pid Pid, pes Pes) (*PesPacket, error) {
	var dataLen *int
	if !d.ignoreHeaderLength && pes.PacketLen != 0 {
		optLen := pes.Header.OptionalHeaderLen()
		if int(pes.PacketLen) < optLen {
			return nil, fmt.Errorf("%w: pes_packet_length %d shorter than optional header %d", ErrInvalidInput, pes.PacketLen, optLen)
		}
		n := int(pes.PacketLen) - optLen
		dataLen = &n
	}

	data := make([]byte, len(pes.Data), initialCapacity(dataLen, len(pes.Data)))
	copy(data, pes.Data)

	next := &partialPesPacket{
		packet:  PesPacket{Header: pes.Header, Pid: pid, Data: data},
		dataLen: dataLen,
	}

	prior, existed := d.pesPackets[pid]
	d.pesPackets[pid] = next
	if !existed {
		return nil, nil
	}
	return d.emit(prior)
}

// appendPartial appends raw fragment data to the in-flight partial for pid,
// emitting it once it reaches its declared length.
func (d *PesPacketDecoder) appendPartial(pid Pid, fragment []byte) (*PesPacket, error) {
	partial, ok := d.pesPackets[pid]
	if !ok {
		return nil, nil
	}
	partial.packet.Data = append(partial.packet.Data, fragment...)

	if partial.dataLen != nil && len(partial.packet.Data) > *partial.dataLen {
		d.log.Debug("dropping pes packet that exceeded declared length", "pid", pid)
		delete(d.pesPackets, pid)
		return nil, nil
	}
	if partial.dataLen != nil && len(partial.packet.Data) == *partial.dataLen {
		delete(d.pesPackets, pid)
		return d.emit(partial)
	}
	return nil, nil
}

// Flush marks the decoder as past end-of-stream and, on this and every
// subsequent call, pops one in-flight partial packet until none remain.
// Each emitted packet must be complete (or unbounded); otherwise an error is
// returned.
func (d *PesPacketDecoder) Flush() (*PesPacket, error) {
	d.eos = true
	for pid, partial := range d.pesPackets {
		delete(d.pesPackets, pid)
		if partial.dataLen != nil && len(partial.packet.Data) != *partial.dataLen {
			return nil, fmt.Errorf("%w: on pid %d", ErrUnexpectedEOS, pid)
		}
		return d.emit(partial)
	}
	return nil, nil
}

// emit finalizes a partial packet into a PesPacket return value.
func (d *PesPacketDecoder) emit(partial *partialPesPacket) (*PesPacket, error) {
	pkt := partial.packet
	return &pkt, nil
}

// initialCapacity picks a starting buffer capacity: the declared length when
// known, else the length of the first fragment.
func initialCapacity(dataLen *int, fragmentLen int) int {
	if dataLen != nil {
		return *dataLen
	}
	return fragmentLen
}
