/*
NAME
  tsreader.go - reads a byte stream of 188-byte MPEG-TS packets, classifying
  each by PID using an in-band PAT/PMT observation table.

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
	"errors"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/mpegts/container/mts/meta"
	"github.com/ausocean/mpegts/container/mts/pes"
	"github.com/ausocean/mpegts/container/mts/psi"
)

// errNoMeta is returned by metaFromDescriptors when a PMT's program_info
// descriptors don't include the AusOcean metadata descriptor.
var errNoMeta = errors.New("PMT does not contain meta")

// pidKind classifies a PID by what its payload currently carries, as
// learned from in-band PAT/PMT tables.
type pidKind int

const (
	pidKindUnknown pidKind = iota
	pidKindPmt
	pidKindPes
)

// defaultLogger is used when no logger is supplied via WithLogger; it
// discards everything it's given.
func defaultLogger() logging.Logger {
	return logging.New(logging.Info, io.Discard, true)
}

// TsPacketReader reads a byte stream of MPEG-TS packets, returning them as
// fully parsed TsPacket values. It maintains a PID-kind table, seeded by
// in-band PAT/PMT observations, that is never reclassified once a PID is
// known to be pidKindPes.
type TsPacketReader struct {
	src  io.Reader
	pids map[Pid]pidKind
	log  logging.Logger

	peeked   *TsPacket
	hasPeek  bool
}

// NewTsPacketReader constructs a TsPacketReader reading TS packets from src.
func NewTsPacketReader(src io.Reader, options ...func(*TsPacketReader) error) (*TsPacketReader, error) {
	r := &TsPacketReader{
		src:  src,
		pids: make(map[Pid]pidKind),
		log:  defaultLogger(),
	}
	for _, opt := range options {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ReadTsPacket returns the next valid TsPacket from the stream, skipping
// malformed packets with a trace-level log entry. It returns (nil, nil) at a
// clean end of stream.
func (r *TsPacketReader) ReadTsPacket() (*TsPacket, error) {
	if r.hasPeek {
		p := r.peeked
		r.peeked = nil
		r.hasPeek = false
		return p, nil
	}
	return r.getNextAvailablePacket()
}

// PeekTsPacket returns the next valid TsPacket without consuming it; a
// subsequent ReadTsPacket or PeekTsPacket returns the same packet.
func (r *TsPacketReader) PeekTsPacket() (*TsPacket, error) {
	if r.hasPeek {
		return r.peeked, nil
	}
	p, err := r.getNextAvailablePacket()
	if err != nil {
		return nil, err
	}
	r.peeked = p
	r.hasPeek = p != nil
	return p, nil
}

// getNextAvailablePacket reads and parses packets from src, discarding any
// that fail to parse, until a valid packet or EOF is reached.
func (r *TsPacketReader) getNextAvailablePacket() (*TsPacket, error) {
	for {
		raw, err := r.readNextPacket()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		p, err := r.parsePacket(raw)
		if err != nil {
			r.log.Debug("skipping malformed ts packet", "error", err.Error())
			continue
		}
		return p, nil
	}
}

// readNextPacket reads exactly PacketSize bytes from src.
func (r *TsPacketReader) readNextPacket() ([]byte, error) {
	buf := make([]byte, PacketSize)
	_, err := io.ReadFull(r.src, buf)
	if err == io.ErrUnexpectedEOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// parsePacket parses the fixed header, adaptation field and payload of a
// single 188-byte TS packet, classifying the payload per the PID-kind
// table.
func (r *TsPacketReader) parsePacket(raw []byte) (*TsPacket, error) {
	hdr, afc, pusi, err := readTsHeader(raw)
	if err != nil {
		return nil, err
	}

	p := &TsPacket{Header: hdr, PUSI: pusi}
	rest := raw[HeadSize:]

	if afc == afcAdaptationOnly || afc == afcAdaptationAndPl {
		af, n, err := readAdaptationField(rest)
		if err != nil {
			return nil, fmt.Errorf("adaptation field: %w", err)
		}
		p.Adaptation = &af
		rest = rest[n:]
	}

	if afc != afcPayloadOnly && afc != afcAdaptationAndPl {
		return p, nil
	}

	payload, err := r.classify(hdr.Pid, pusi, rest)
	if err != nil {
		return nil, err
	}
	p.Payload = payload
	return p, nil
}

// classify dispatches payload bytes to the correct TsPayload kind, updating
// the PID-kind table as new PAT/PMT tables are observed.
func (r *TsPacketReader) classify(pid Pid, pusi bool, payload []byte) (TsPayload, error) {
	switch {
	case pid == PidPat:
		entries, err := psi.ReadPAT(payload)
		if err != nil {
			return nil, err
		}
		pat := Pat{}
		for _, e := range entries {
			pmtPid, err := NewPid(e.ProgramMapPID)
			if err != nil {
				return nil, err
			}
			if r.pids[pmtPid] != pidKindPes {
				r.pids[pmtPid] = pidKindPmt
			}
			pat.Entries = append(pat.Entries, PatEntry{Program: e.Program, ProgramMapPid: pmtPid})
		}
		return TsPat{Pat: pat}, nil

	case pid.IsNull():
		return TsNull{}, nil

	case isReservedPid(pid):
		b, err := NewBytes(payload)
		if err != nil {
			return nil, err
		}
		return TsRaw{Data: b}, nil
	}

	switch r.pids[pid] {
	case pidKindPmt:
		info, err := psi.ReadPMT(payload)
		if err != nil {
			return nil, err
		}
		pmt := Pmt{ProgramNumber: info.ProgramNumber}
		pcrPid, err := NewPid(info.PcrPID)
		if err != nil {
			return nil, err
		}
		pmt.PcrPid = pcrPid
		pmt.ProgramInfo = info.ProgramInfo
		for _, s := range info.Streams {
			esPid, err := NewPid(s.PID)
			if err != nil {
				return nil, err
			}
			r.pids[esPid] = pidKindPes
			pmt.Streams = append(pmt.Streams, EsInfo{StreamType: s.StreamType, ElementaryPid: esPid, EsInfo: s.Descriptors})
		}
		if m, err := metaFromDescriptors(info.ProgramInfo); err == nil {
			pmt.Meta = m
		}
		return TsPmt{Pmt: pmt}, nil

	case pidKindPes:
		if !pusi {
			b, err := NewBytes(payload)
			if err != nil {
				return nil, err
			}
			return TsRaw{Data: b}, nil
		}
		pkt, _, err := pes.ReadPacket(payload)
		if err != nil {
			return nil, err
		}
		return tsPesFromPacket(pkt)

	default:
		// PID not yet classified by any observed PAT/PMT; discard.
		return TsNull{}, nil
	}
}

// isReservedPid reports whether pid falls in the reserved/unsupported PID
// ranges whose payload this reader passes through as raw bytes rather than
// attempting to interpret.
func isReservedPid(pid Pid) bool {
	return (pid >= 0x0001 && pid <= 0x001f) || pid == 0x1ffb
}

// tsPesFromPacket converts a decoded pes.Packet into the TsPes payload,
// translating the PTS/DTS/ESCR presence flags into optional pointers.
func tsPesFromPacket(pkt *pes.Packet) (TsPayload, error) {
	h := PesHeader{
		StreamId:               StreamId(pkt.StreamID),
		Priority:                pkt.Priority,
		DataAlignmentIndicator:  pkt.DAI,
		Copyright:               pkt.Copyright,
		OriginalOrCopy:          pkt.Original,
		HeaderLength:            pkt.HeaderLength,
	}
	h.hasOptional = !pes.NoOptionalHeader(pkt.StreamID)
	if pkt.PDI == 2 || pkt.PDI == 3 {
		pts := pkt.PTS
		h.PTS = &pts
	}
	if pkt.PDI == 3 {
		dts := pkt.DTS
		h.DTS = &dts
	}
	if pkt.ESCRF {
		escr := pkt.ESCR
		h.ESCR = &escr
	}

	data, err := NewBytes(pkt.Data)
	if err != nil {
		return nil, err
	}

	return TsPes{Pes: Pes{Header: h, PacketLen: pkt.Length, Data: data}}, nil
}

// metaFromDescriptors decodes the AusOcean metadata descriptor, if present,
// from a PMT's program_info descriptor list.
func metaFromDescriptors(descs []psi.Descriptor) (map[string]string, error) {
	for _, d := range descs {
		if d.Tag == psi.MetadataTag {
			return meta.GetAllAsMap(d.Data)
		}
	}
	return nil, errNoMeta
}
