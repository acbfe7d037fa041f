/*
NAME
  tsheader.go - byte-exact parsing and serialization of the MPEG-TS fixed
  header and optional adaptation field.

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

import "fmt"

// syncByte is the fixed sync_byte value that opens every TS packet.
const syncByte = 0x47

// Transport scrambling control values (transport_scrambling_control field).
const (
	NotScrambled byte = 0
	TscReserved  byte = 1
	EvenKey      byte = 2
	OddKey       byte = 3
)

// Adaptation field control values (adaptation_field_control field).
const (
	afcReserved        = 0
	afcPayloadOnly     = 1
	afcAdaptationOnly  = 2
	afcAdaptationAndPl = 3
)

// TsHeader is the parsed fixed 4-byte MPEG-TS packet header. The
// adaptation_field_control and payload_unit_start_indicator bits are not
// stored here; readTsHeader returns them alongside the header so the caller
// can decide how to parse the remainder of the packet.
type TsHeader struct {
	TEI      bool
	Priority bool
	Pid      Pid
	TSC      byte
	CC       ContinuityCounter
}

// readTsHeader parses the 4-byte fixed header starting at buf[0], which must
// be the sync byte. It returns the header, the 2-bit adaptation_field_control
// value, and the payload_unit_start_indicator bit.
func readTsHeader(buf []byte) (hdr TsHeader, afc byte, pusi bool, err error) {
	if len(buf) < HeadSize {
		return hdr, 0, false, fmt.Errorf("ts header requires %d bytes, got %d", HeadSize, len(buf))
	}
	if buf[0] != syncByte {
		return hdr, 0, false, fmt.Errorf("%w: expected sync byte 0x47, got 0x%02x", ErrInvalidSync, buf[0])
	}

	hdr.TEI = buf[1]&0x80 != 0
	pusi = buf[1]&0x40 != 0
	hdr.Priority = buf[1]&0x20 != 0
	pid := (uint16(buf[1]&0x1f) << 8) | uint16(buf[2])
	hdr.Pid, err = NewPid(pid)
	if err != nil {
		return hdr, 0, false, fmt.Errorf("%w: %v", ErrInvalidPid, err)
	}

	hdr.TSC = (buf[3] & 0xc0) >> 6
	afc = (buf[3] & 0x30) >> 4
	cc, err := NewContinuityCounter(buf[3] & 0x0f)
	if err != nil {
		return hdr, 0, false, err
	}
	hdr.CC = cc

	return hdr, afc, pusi, nil
}

// writeTsHeader serializes hdr, afc and pusi into the first 4 bytes of buf,
// which must be at least HeadSize long.
func writeTsHeader(buf []byte, hdr TsHeader, afc byte, pusi bool) {
	buf[0] = syncByte
	buf[1] = asByte(hdr.TEI)<<7 | asByte(pusi)<<6 | asByte(hdr.Priority)<<5 | byte(hdr.Pid>>8)
	buf[2] = byte(hdr.Pid)
	buf[3] = hdr.TSC<<6 | afc<<4 | byte(hdr.CC)
}

func asByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// AdaptationField is the optional region following the fixed header, present
// when adaptation_field_control is 2 (adaptation only) or 3 (adaptation
// followed by payload).
type AdaptationField struct {
	Discontinuity bool
	RandomAccess  bool
	ESPriority    bool

	PCR  *uint64 // 33-bit base + 9-bit extension, packed as in the donor's Packet.PCR.
	OPCR *uint64

	SpliceCountdown *int8
	PrivateData     []byte
	Extension       []byte
}

// readAdaptationField parses the adaptation field starting at buf[0], which
// must begin with the adaptation_field_length byte.
func readAdaptationField(buf []byte) (AdaptationField, int, error) {
	var af AdaptationField
	if len(buf) < 1 {
		return af, 0, fmt.Errorf("%w: adaptation field truncated", ErrInvalidInput)
	}
	length := int(buf[0])
	total := 1 + length
	if length == 0 {
		return af, total, nil
	}
	if len(buf) < total {
		return af, 0, fmt.Errorf("%w: adaptation field declares length %d, have %d bytes", ErrInvalidInput, length, len(buf)-1)
	}

	flags := buf[1]
	af.Discontinuity = flags&0x80 != 0
	af.RandomAccess = flags&0x40 != 0
	af.ESPriority = flags&0x20 != 0
	pcrFlag := flags&0x10 != 0
	opcrFlag := flags&0x08 != 0
	spliceFlag := flags&0x04 != 0
	privateFlag := flags&0x02 != 0
	extFlag := flags&0x01 != 0

	i := 2
	if pcrFlag {
		if i+6 > total {
			return af, 0, fmt.Errorf("%w: adaptation field PCR truncated", ErrInvalidInput)
		}
		pcr := readPCR(buf[i : i+6])
		af.PCR = &pcr
		i += 6
	}
	if opcrFlag {
		if i+6 > total {
			return af, 0, fmt.Errorf("%w: adaptation field OPCR truncated", ErrInvalidInput)
		}
		opcr := readPCR(buf[i : i+6])
		af.OPCR = &opcr
		i += 6
	}
	if spliceFlag {
		if i+1 > total {
			return af, 0, fmt.Errorf("%w: adaptation field splice countdown truncated", ErrInvalidInput)
		}
		sc := int8(buf[i])
		af.SpliceCountdown = &sc
		i++
	}
	if privateFlag {
		if i+1 > total {
			return af, 0, fmt.Errorf("%w: adaptation field private data length truncated", ErrInvalidInput)
		}
		n := int(buf[i])
		i++
		if i+n > total {
			return af, 0, fmt.Errorf("%w: adaptation field private data truncated", ErrInvalidInput)
		}
		af.PrivateData = append([]byte(nil), buf[i:i+n]...)
		i += n
	}
	if extFlag {
		if i < total {
			af.Extension = append([]byte(nil), buf[i:total]...)
		}
	}

	return af, total, nil
}

// readPCR unpacks a 33-bit base + 9-bit extension program clock reference
// from its 6-byte wire form into a single uint64 (base*300 + extension),
// matching the donor's Packet.PCR/OPCR packing.
func readPCR(b []byte) uint64 {
	base := uint64(b[0])<<25 | uint64(b[1])<<17 | uint64(b[2])<<9 | uint64(b[3])<<1 | uint64(b[4]>>7)
	ext := uint64(b[4]&0x01)<<8 | uint64(b[5])
	return base*300 + ext
}

// writePCR packs a PCR value (base*300 + extension form) into its 6-byte
// wire form, the inverse of readPCR.
func writePCR(buf []byte, pcr uint64) {
	base := pcr / 300
	ext := pcr % 300
	buf[0] = byte(base >> 25)
	buf[1] = byte(base >> 17)
	buf[2] = byte(base >> 9)
	buf[3] = byte(base >> 1)
	buf[4] = byte(base<<7) | 0x7e | byte(ext>>8)
	buf[5] = byte(ext)
}

// writeAdaptationField serializes af into buf, returning the number of bytes
// written (including the leading length byte). When the body is shorter
// than minBodySize, 0xFF stuffing bytes are appended to it and counted in
// the declared length, so that the total adaptation field occupies at least
// minBodySize+1 bytes; pass 0 when no minimum is required.
func writeAdaptationField(buf []byte, af AdaptationField, minBodySize int) int {
	body := make([]byte, 0, DefaultAdaptationBodySize)

	var flags byte
	if af.Discontinuity {
		flags |= 0x80
	}
	if af.RandomAccess {
		flags |= 0x40
	}
	if af.ESPriority {
		flags |= 0x20
	}
	if af.PCR != nil {
		flags |= 0x10
	}
	if af.OPCR != nil {
		flags |= 0x08
	}
	if af.SpliceCountdown != nil {
		flags |= 0x04
	}
	if len(af.PrivateData) > 0 {
		flags |= 0x02
	}
	if len(af.Extension) > 0 {
		flags |= 0x01
	}
	body = append(body, flags)

	if af.PCR != nil {
		var pcrBuf [6]byte
		writePCR(pcrBuf[:], *af.PCR)
		body = append(body, pcrBuf[:]...)
	}
	if af.OPCR != nil {
		var opcrBuf [6]byte
		writePCR(opcrBuf[:], *af.OPCR)
		body = append(body, opcrBuf[:]...)
	}
	if af.SpliceCountdown != nil {
		body = append(body, byte(*af.SpliceCountdown))
	}
	if len(af.PrivateData) > 0 {
		body = append(body, byte(len(af.PrivateData)))
		body = append(body, af.PrivateData...)
	}
	if len(af.Extension) > 0 {
		body = append(body, af.Extension...)
	}

	for len(body) < minBodySize {
		body = append(body, 0xff)
	}

	buf[0] = byte(len(body))
	n := copy(buf[1:], body)
	return 1 + n
}
