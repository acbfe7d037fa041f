/*
NAME
  read.go - decode-direction counterparts of psi.go's PAT/PMT encoders:
  reading a program association table or program map table out of its
  on-wire PSI section bytes.

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

package psi

import "fmt"

// PatEntry associates a program_number with the PID of the program map
// table describing it. A program_number of 0 denotes a network PID entry.
type PatEntry struct {
	Program       uint16
	ProgramMapPID uint16
}

// ReadPAT decodes a program association table from b, the PSI section bytes
// starting at the pointer_field (i.e. the TS packet payload with the
// 4-byte TS header already stripped). The trailing CRC is consumed but not
// validated, matching the donor's write-only AddCRC/UpdateCrc helpers.
func ReadPAT(b []byte) ([]PatEntry, error) {
	b, err := skipPointerField(b)
	if err != nil {
		return nil, err
	}
	if len(b) < 3 {
		return nil, fmt.Errorf("pat too short: %d bytes", len(b))
	}
	if b[0] != patID {
		return nil, fmt.Errorf("not a pat: table_id=0x%02x", b[0])
	}

	secLen := int((b[1]&SectionLenMask1))<<8 | int(b[2])
	total := 3 + secLen
	if total > len(b) {
		return nil, fmt.Errorf("pat declares section length %d beyond available %d bytes", secLen, len(b))
	}

	// Syntax section: table_id_ext(2), version/current_next(1), section(1),
	// last_section(1), then PAT entries, then a trailing CRC.
	i := 3 + TSSDefLen // PAT entries start right after the 5-byte syntax section header.
	end := total - crcSize
	var entries []PatEntry
	for i+PATLen <= end {
		program := uint16(b[i])<<8 | uint16(b[i+1])
		pid := (uint16(b[i+2]&0x1f) << 8) | uint16(b[i+3])
		if program != 0 {
			entries = append(entries, PatEntry{Program: program, ProgramMapPID: pid})
		}
		i += PATLen
	}
	return entries, nil
}

// StreamInfo describes one elementary stream declared by a PMT.
type StreamInfo struct {
	StreamType  byte
	PID         uint16
	Descriptors []Descriptor
}

// PMTInfo is the decoded form of a program map table.
type PMTInfo struct {
	ProgramNumber uint16
	PcrPID        uint16
	ProgramInfo   []Descriptor
	Streams       []StreamInfo
}

// ReadPMT decodes a program map table from b, the PSI section bytes starting
// at the pointer_field. The trailing CRC is consumed but not validated.
func ReadPMT(b []byte) (*PMTInfo, error) {
	b, err := skipPointerField(b)
	if err != nil {
		return nil, err
	}
	if len(b) < 3+TSSDefLen {
		return nil, fmt.Errorf("pmt too short: %d bytes", len(b))
	}
	if b[0] != pmtID {
		return nil, fmt.Errorf("not a pmt: table_id=0x%02x", b[0])
	}

	secLen := int(b[1]&SectionLenMask1)<<8 | int(b[2])
	total := 3 + secLen
	if total > len(b) {
		return nil, fmt.Errorf("pmt declares section length %d beyond available %d bytes", secLen, len(b))
	}
	end := total - crcSize

	// Syntax section header (5 bytes) occupies b[3:8]: table_id_ext(2),
	// version/current_next(1), section(1), last_section(1).
	info := &PMTInfo{
		ProgramNumber: uint16(b[3])<<8 | uint16(b[4]),
		PcrPID:        (uint16(b[8]&0x1f) << 8) | uint16(b[9]),
	}

	progInfoLen := int(b[10]&ProgramInfoLenMask1)<<8 | int(b[11])
	i := 12
	progInfoEnd := i + progInfoLen
	if progInfoEnd > end {
		return nil, fmt.Errorf("pmt program info length %d beyond available section", progInfoLen)
	}
	info.ProgramInfo = readDescriptors(b[i:progInfoEnd])
	i = progInfoEnd

	for i+ESSDataLen <= end {
		streamType := b[i]
		pid := (uint16(b[i+1]&0x1f) << 8) | uint16(b[i+2])
		esInfoLen := int(b[i+3]&ProgramInfoLenMask1)<<8 | int(b[i+4])
		descStart := i + ESSDataLen
		descEnd := descStart + esInfoLen
		if descEnd > end {
			return nil, fmt.Errorf("pmt elementary stream info length %d beyond available section", esInfoLen)
		}
		info.Streams = append(info.Streams, StreamInfo{
			StreamType:  streamType,
			PID:         pid,
			Descriptors: readDescriptors(b[descStart:descEnd]),
		})
		i = descEnd
	}

	return info, nil
}

// readDescriptors decodes a run of {tag(1), len(1), data(len)} descriptor
// entries occupying all of b.
func readDescriptors(b []byte) []Descriptor {
	var descs []Descriptor
	for i := 0; i+DescDefLen <= len(b); {
		n := int(b[i+1])
		end := i + DescDefLen + n
		if end > len(b) {
			break
		}
		descs = append(descs, Descriptor{Tag: b[i], Len: b[i+1], Data: b[i+2 : end]})
		i = end
	}
	return descs
}

// skipPointerField strips the pointer_field byte (and any pointer filler
// bytes it names) from the start of a PSI section.
func skipPointerField(b []byte) ([]byte, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("psi section empty")
	}
	pf := int(b[0])
	if 1+pf > len(b) {
		return nil, fmt.Errorf("pointer field %d exceeds available bytes", pf)
	}
	return b[1+pf:], nil
}
