/*
NAME
  tswriter.go - serializes a TsPacket back to its 188-byte wire form, the
  inverse of the header, adaptation field and payload codecs.

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
	"io"

	"github.com/Comcast/gots/v2"

	"github.com/ausocean/mpegts/container/mts/psi"
)

// WriteTsPacket serializes p into exactly PacketSize bytes and writes them
// to w, padding any unused payload area with 0xFF stuffing bytes, matching
// the donor's Packet.Bytes() stuffing loop.
func WriteTsPacket(w io.Writer, p *TsPacket) error {
	buf := make([]byte, PacketSize)

	afc := afcPayloadOnly
	if p.Adaptation != nil {
		afc = afcAdaptationAndPl
	}

	payload, err := payloadBytes(p.Payload)
	if err != nil {
		return err
	}
	if payload == nil && p.Adaptation != nil {
		afc = afcAdaptationOnly
	}

	writeTsHeader(buf, p.Header, byte(afc), p.PUSI)

	i := HeadSize
	if p.Adaptation != nil {
		minBody := 0
		if afc == afcAdaptationOnly {
			minBody = PacketSize - HeadSize - 1
		}
		n := writeAdaptationField(buf[i:], *p.Adaptation, minBody)
		i += n
	}

	if len(payload) > PacketSize-i {
		return fmt.Errorf("%w: payload of %d bytes does not fit in remaining %d", ErrPayloadTooLarge, len(payload), PacketSize-i)
	}
	copy(buf[i:], payload)
	for j := i + len(payload); j < PacketSize; j++ {
		buf[j] = 0xff
	}

	_, err = w.Write(buf)
	return err
}

// payloadBytes serializes a TsPayload back to its on-wire bytes.
func payloadBytes(p TsPayload) ([]byte, error) {
	switch v := p.(type) {
	case nil:
		return nil, nil
	case TsNull:
		return nil, nil
	case TsRaw:
		return v.Data, nil
	case TsPat:
		return patBytes(v.Pat), nil
	case TsPmt:
		return pmtBytes(v.Pmt), nil
	case TsPes:
		return pesBytes(v.Pes), nil
	default:
		return nil, fmt.Errorf("%w: unknown payload type %T", ErrInvalidInput, p)
	}
}

// patBytes builds the on-wire PSI section for a program association table.
func patBytes(pat Pat) []byte {
	t := psi.NewPATPSI()
	if len(pat.Entries) > 0 {
		t.SyntaxSection.SpecificData = &psi.PAT{
			Program:       pat.Entries[0].Program,
			ProgramMapPID: uint16(pat.Entries[0].ProgramMapPid),
		}
	}
	return t.Bytes()
}

// pmtBytes builds the on-wire PSI section for a program map table. Only the
// first declared elementary stream is carried by the donor's singular
// StreamSpecificData field; additional streams are appended as raw
// ESSDataLen-shaped descriptors following it.
func pmtBytes(pmt Pmt) []byte {
	t := psi.NewPMTPSI()
	pd := t.SyntaxSection.SpecificData.(*psi.PMT)
	pd.ProgramClockPID = uint16(pmt.PcrPid)
	pd.Descriptors = pmt.ProgramInfo
	if len(pmt.Streams) > 0 {
		pd.StreamSpecificData = &psi.StreamSpecificData{
			StreamType:  pmt.Streams[0].StreamType,
			PID:         uint16(pmt.Streams[0].ElementaryPid),
			Descriptors: pmt.Streams[0].EsInfo,
		}
	}
	out := t.Bytes()
	for i := 1; i < len(pmt.Streams); i++ {
		s := pmt.Streams[i]
		essd := psi.StreamSpecificData{
			StreamType:  s.StreamType,
			PID:         uint16(s.ElementaryPid),
			Descriptors: s.EsInfo,
		}
		out = append(out[:len(out)-4], essd.Bytes()...) // Re-append before the trailing CRC.
		out = psi.AddCRC(out)
	}
	return out
}

// pesBytes builds the on-wire PES packet prefix and optional header for a
// single fragment, via gots.InsertPTS for the PTS-only case exactly as the
// donor's pes.Packet.Bytes() used to.
func pesBytes(p Pes) []byte {
	buf := make([]byte, 0, minPesPrefix+len(p.Data))
	buf = append(buf, 0x00, 0x00, 0x01, byte(p.Header.StreamId))
	buf = append(buf, byte(p.PacketLen>>8), byte(p.PacketLen))

	if p.Header.hasOptional {
		var pdi byte
		if p.Header.DTS != nil {
			pdi = 3
		} else if p.Header.PTS != nil {
			pdi = 2
		}
		buf = append(buf,
			0x80|asByte(p.Header.Priority)<<3|asByte(p.Header.DataAlignmentIndicator)<<2|
				asByte(p.Header.Copyright)<<1|asByte(p.Header.OriginalOrCopy),
			pdi<<6|asByte(p.Header.ESCR != nil)<<5,
			p.Header.HeaderLength,
		)
		switch {
		case p.Header.PTS != nil && p.Header.DTS != nil:
			// PTS and DTS both present: marker nibbles are 0011 and 0001
			// respectively, per ITU-T H.222.0 2.4.3.7 - gots.InsertPTS (used
			// below for the PTS-only case) always writes the PTS-only
			// nibble, so the two-timestamp case is packed by hand.
			ptsIdx := len(buf)
			buf = buf[:ptsIdx+5]
			packTimestamp(buf[ptsIdx:], 0x3, *p.Header.PTS)
			dtsIdx := len(buf)
			buf = buf[:dtsIdx+5]
			packTimestamp(buf[dtsIdx:], 0x1, *p.Header.DTS)
		case p.Header.PTS != nil:
			ptsIdx := len(buf)
			buf = buf[:ptsIdx+5]
			gots.InsertPTS(buf[ptsIdx:], *p.Header.PTS)
		}
		if p.Header.ESCR != nil {
			escrIdx := len(buf)
			buf = buf[:escrIdx+6]
			packEscr(buf[escrIdx:], *p.Header.ESCR)
		}
	}

	buf = append(buf, p.Data...)
	return buf
}

const minPesPrefix = 6

// packTimestamp packs a 33-bit PTS/DTS value into its 5-byte wire form with
// the given 4-bit marker nibble, the inverse of pes.extractTimestamp's bit
// layout.
func packTimestamp(buf []byte, nibble byte, ts uint64) {
	buf[0] = nibble<<4 | byte((ts>>29)&0x0e) | 0x01
	buf[1] = byte(ts >> 22)
	buf[2] = byte((ts>>14)&0xfe) | 0x01
	buf[3] = byte(ts >> 7)
	buf[4] = byte((ts<<1)&0xfe) | 0x01
}

// packEscr packs a 42-bit ESCR value (33-bit base + 9-bit extension, stored
// combined as base*300+extension) into its 6-byte PES optional-header wire
// form, the inverse of pes.extractESCR's bit layout. This is distinct from
// writePCR/readPCR, which pack the adaptation field's PCR using a different,
// marker-bit-free layout.
func packEscr(buf []byte, v uint64) {
	base := v / 300
	ext := v % 300
	buf[0] = 0xc0 | byte((base>>30)&0x07)<<3 | 0x04 | byte((base>>28)&0x03)
	buf[1] = byte(base >> 20)
	buf[2] = byte((base>>15)&0x1f)<<3 | 0x04 | byte((base>>13)&0x03)
	buf[3] = byte(base >> 5)
	buf[4] = byte(base&0x1f)<<3 | 0x04 | byte((ext>>7)&0x03)
	buf[5] = byte(ext&0x7f)<<1 | 0x01
}
