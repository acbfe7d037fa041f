/*
NAME
  read.go - parses a PES packet prefix and optional header (PTS/DTS/ESCR) out
  of its on-wire form into a Packet, generalizing the bit-packed PTS layout
  to DTS and to the wider ESCR field.

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

package pes

import "fmt"

// Stream IDs that never carry an optional PES header, per ITU-T H.222.0
// Table 2-21.
const (
	ProgramStreamMapSID     = 0xbc
	PaddingStreamSID        = 0xbe
	PrivateStream2SID       = 0xbf
	ECMStreamSID            = 0xf0
	EMMStreamSID            = 0xf1
	ProgramStreamDirSID     = 0xff
	DSMCCStreamSID          = 0xf2
	H222Type1ExtensionSID   = 0xf8
)

// NoOptionalHeader reports whether a PES packet with the given stream_id
// omits the optional header (PTS/DTS/ESCR/etc) entirely and carries its
// payload directly after pes_packet_length.
func NoOptionalHeader(streamID byte) bool {
	switch streamID {
	case ProgramStreamMapSID, PaddingStreamSID, PrivateStream2SID, ECMStreamSID,
		EMMStreamSID, ProgramStreamDirSID, DSMCCStreamSID, H222Type1ExtensionSID:
		return true
	default:
		return false
	}
}

// minPrefixLen is the 6-byte PES prefix: start code (3) + stream_id (1) +
// pes_packet_length (2).
const minPrefixLen = 6

// ReadPacket parses a PES packet starting at b[0], which must begin with the
// start code 0x000001. It returns the decoded packet (with Data set to the
// payload bytes available in b beyond the header) and the number of header
// bytes consumed (everything up to and including the optional header, if
// present).
func ReadPacket(b []byte) (*Packet, int, error) {
	if len(b) < minPrefixLen {
		return nil, 0, fmt.Errorf("pes packet too short: %d bytes", len(b))
	}
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x01 {
		return nil, 0, fmt.Errorf("invalid pes start code: %02x%02x%02x", b[0], b[1], b[2])
	}

	p := &Packet{
		StreamID: b[3],
		Length:   uint16(b[4])<<8 | uint16(b[5]),
	}

	if NoOptionalHeader(p.StreamID) {
		p.Data = b[minPrefixLen:]
		return p, minPrefixLen, nil
	}

	if len(b) < minPrefixLen+3 {
		return nil, 0, fmt.Errorf("pes optional header prefix truncated")
	}

	flags1 := b[6]
	p.SC = (flags1 >> 4) & 0x3
	p.Priority = flags1&0x08 != 0
	p.DAI = flags1&0x04 != 0
	p.Copyright = flags1&0x02 != 0
	p.Original = flags1&0x01 != 0

	flags2 := b[7]
	p.PDI = (flags2 >> 6) & 0x3
	p.ESCRF = flags2&0x20 != 0
	p.ESRF = flags2&0x10 != 0
	p.DSMTMF = flags2&0x08 != 0
	p.ACIF = flags2&0x04 != 0
	p.CRCF = flags2&0x02 != 0
	p.EF = flags2&0x01 != 0

	p.HeaderLength = b[8]
	headerEnd := minPrefixLen + 3 + int(p.HeaderLength)
	if headerEnd > len(b) {
		return nil, 0, fmt.Errorf("pes header length %d exceeds available bytes", p.HeaderLength)
	}

	i := minPrefixLen + 3
	if p.PDI == 2 || p.PDI == 3 {
		if i+5 > headerEnd {
			return nil, 0, fmt.Errorf("pes pts field truncated")
		}
		p.PTS = extractTimestamp(b[i : i+5])
		i += 5
	}
	if p.PDI == 3 {
		if i+5 > headerEnd {
			return nil, 0, fmt.Errorf("pes dts field truncated")
		}
		p.DTS = extractTimestamp(b[i : i+5])
		i += 5
	}
	if p.ESCRF {
		if i+6 > headerEnd {
			return nil, 0, fmt.Errorf("pes escr field truncated")
		}
		p.ESCR = extractESCR(b[i : i+6])
		i += 6
	}

	p.Data = b[headerEnd:]
	return p, headerEnd, nil
}

// extractTimestamp decodes a 33-bit PTS or DTS from its 5-byte bit-packed
// wire form per ITU-T H.222.0 2.4.3.7.
func extractTimestamp(d []byte) uint64 {
	return (uint64((d[0]>>1)&0x07) << 30) | (uint64(d[1]) << 22) | (uint64((d[2]>>1)&0x7f) << 15) | (uint64(d[3]) << 7) | uint64((d[4]>>1)&0x7f)
}

// extractESCR decodes a 42-bit ESCR (33-bit base + 9-bit extension) from its
// 6-byte wire form, generalizing extractTimestamp's bit layout with the
// additional low-order extension field.
func extractESCR(d []byte) uint64 {
	base := (uint64((d[0]>>3)&0x07) << 30) |
		(uint64(d[0]&0x03) << 28) | (uint64(d[1]) << 20) | (uint64((d[2]>>3)&0x1f) << 15) |
		(uint64(d[2]&0x03) << 13) | (uint64(d[3]) << 5) | uint64((d[4]>>3)&0x1f)
	ext := (uint64(d[4]&0x03) << 7) | uint64(d[5]>>1)
	return base*300 + ext
}
