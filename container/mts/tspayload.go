/*
NAME
  tspayload.go - the TsPacket type and the TsPayload tagged union describing
  what a TS packet's payload region carries (a program table, a PES
  fragment, stuffing, or opaque bytes).

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

import "github.com/ausocean/mpegts/container/mts/psi"

// TsPacket is a fully parsed MPEG-TS packet: its fixed header, the optional
// adaptation field, and a payload classified into one of the TsPayload
// kinds.
type TsPacket struct {
	Header     TsHeader
	PUSI       bool
	Adaptation *AdaptationField
	Payload    TsPayload
}

// TsPayload is the tagged union of everything a TS packet's payload region
// can carry. It follows the donor's psi.SpecificData interface pattern
// (PAT/PMT both implement Bytes()) generalized to a payload-kind interface.
type TsPayload interface {
	isTsPayload()
}

// TsPat wraps a parsed program association table.
type TsPat struct{ Pat Pat }

// TsPmt wraps a parsed program map table.
type TsPmt struct{ Pmt Pmt }

// TsPes wraps a PES fragment carried by this particular TS packet.
type TsPes struct{ Pes Pes }

// TsNull marks a null/stuffing packet (PID 0x1FFF) or a packet on a PID this
// reader has not classified.
type TsNull struct{}

// TsRaw carries opaque payload bytes: a reserved/unsupported PID, or a
// continuation fragment (no PUSI) of an already-classified PES stream.
type TsRaw struct{ Data Bytes }

func (TsPat) isTsPayload()  {}
func (TsPmt) isTsPayload()  {}
func (TsPes) isTsPayload()  {}
func (TsNull) isTsPayload() {}
func (TsRaw) isTsPayload()  {}

// Pat is the decoded form of a program association table: the set of
// programs declared and the PMT PID that describes each one.
type Pat struct {
	Entries []PatEntry
}

// PatEntry associates a program_number with the PID of its program map
// table. A program_number of 0 denotes a network PID entry and is excluded
// from Entries by ReadPAT.
type PatEntry struct {
	Program       uint16
	ProgramMapPid Pid
}

// Pmt is the decoded form of a program map table: the PCR PID, any
// program-level descriptors (including AusOcean's own metadata descriptor,
// surfaced via Meta), and the elementary streams it declares.
type Pmt struct {
	ProgramNumber uint16
	PcrPid        Pid
	ProgramInfo   []psi.Descriptor
	Streams       []EsInfo

	// Meta carries the key/value pairs decoded from the metadata descriptor
	// in ProgramInfo, if one is present.
	Meta map[string]string
}

// EsInfo describes one elementary stream declared by a PMT.
type EsInfo struct {
	StreamType    byte
	ElementaryPid Pid
	EsInfo        []psi.Descriptor
}

// PesHeader carries the fields of a PES packet's optional header that this
// module preserves across reassembly.
type PesHeader struct {
	StreamId               StreamId
	Priority               bool
	DataAlignmentIndicator bool
	Copyright              bool
	OriginalOrCopy         bool

	PTS  *uint64 // 33-bit value at 90kHz.
	DTS  *uint64 // 33-bit value at 90kHz.
	ESCR *uint64 // 42-bit value at 27MHz.

	// HeaderLength is the on-wire PES_header_data_length byte, present only
	// when the optional header region itself is present.
	HeaderLength byte
	hasOptional  bool
}

// OptionalHeaderLen returns the number of bytes the optional PES header
// occupies on the wire (3 prefix bytes + HeaderLength), or 0 if this stream
// ID carries no optional header (see pes.NoOptionalHeader).
func (h PesHeader) OptionalHeaderLen() int {
	if !h.hasOptional {
		return 0
	}
	return 3 + int(h.HeaderLength)
}

// Pes is a single PES fragment as carried by one TS packet: the header
// (present only on the first fragment, i.e. when PUSI is set) and the
// declared total packet length.
type Pes struct {
	Header    PesHeader
	PacketLen uint16 // pes_packet_length; 0 means unbounded.
	Data      Bytes
}

// PesPacket is a fully reassembled PES packet: the header captured from its
// first fragment, and the concatenated payload body from all fragments.
type PesPacket struct {
	Header PesHeader
	Pid    Pid
	Data   []byte
}

// partialPesPacket is the PES decoder's in-flight reassembly state for a
// single PID.
type partialPesPacket struct {
	packet  PesPacket
	dataLen *int // expected total body size; nil if unbounded.
}
