/*
NAME
  pesreader.go - wraps a TsPacketReader and PesPacketDecoder with one-packet
  lookahead and a single-level rewind (mark/reset) buffer.

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

import "io"

// PesPacketReader produces reassembled PesPacket values from a byte stream
// of TS packets, offering one-packet lookahead via PeekPesPacket and a
// single-level rewind via Mark/Reset.
type PesPacketReader struct {
	tsReader *TsPacketReader
	decoder  *PesPacketDecoder

	peeked  *PesPacket
	hasPeek bool

	isMarked   bool
	backBuffer []*PesPacket
}

// NewPesPacketReader constructs a PesPacketReader reading TS packets from
// src.
func NewPesPacketReader(src io.Reader, tsOptions []func(*TsPacketReader) error, pesOptions []func(*PesPacketDecoder) error) (*PesPacketReader, error) {
	tr, err := NewTsPacketReader(src, tsOptions...)
	if err != nil {
		return nil, err
	}
	d, err := NewPesPacketDecoder(pesOptions...)
	if err != nil {
		return nil, err
	}
	return &PesPacketReader{tsReader: tr, decoder: d}, nil
}

// ReadPesPacket returns the next reassembled PesPacket. Precedence: the peek
// slot, then the back-buffer (when not marked), then freshly decoded TS
// packets.
func (r *PesPacketReader) ReadPesPacket() (*PesPacket, error) {
	if r.hasPeek {
		p := r.peeked
		r.peeked = nil
		r.hasPeek = false
		return r.record(p), nil
	}

	if !r.isMarked && len(r.backBuffer) > 0 {
		p := r.backBuffer[0]
		r.backBuffer = r.backBuffer[1:]
		return p, nil
	}

	p, err := r.decodeNext()
	if err != nil {
		return nil, err
	}
	return r.record(p), nil
}

// PeekPesPacket returns the next PesPacket without consuming it.
func (r *PesPacketReader) PeekPesPacket() (*PesPacket, error) {
	if r.hasPeek {
		return r.peeked, nil
	}
	if !r.isMarked && len(r.backBuffer) > 0 {
		return r.backBuffer[0], nil
	}
	p, err := r.decodeNext()
	if err != nil {
		return nil, err
	}
	r.peeked = p
	r.hasPeek = true
	return p, nil
}

// Mark begins recording emitted packets into the back-buffer so a subsequent
// Reset can replay them. Fails if already marked.
func (r *PesPacketReader) Mark() error {
	if r.isMarked {
		return ErrAlreadyMarked
	}
	r.isMarked = true
	return nil
}

// Reset rewinds the reader to the point of the last Mark, replaying every
// packet emitted since. Fails if not marked. A packet sitting in the peek
// slot was already pulled off the underlying stream, so it is carried into
// the back-buffer rather than discarded.
func (r *PesPacketReader) Reset() error {
	if !r.isMarked {
		return ErrNotMarked
	}
	if r.hasPeek {
		r.backBuffer = append(r.backBuffer, r.peeked)
		r.peeked = nil
		r.hasPeek = false
	}
	r.isMarked = false
	return nil
}

// HasBackBuffer reports whether there are packets buffered for replay.
func (r *PesPacketReader) HasBackBuffer() bool {
	return len(r.backBuffer) > 0
}

// record appends p to the back-buffer if currently marked, then returns p
// unchanged.
func (r *PesPacketReader) record(p *PesPacket) *PesPacket {
	if r.isMarked && p != nil {
		r.backBuffer = append(r.backBuffer, p)
	}
	return p
}

// decodeNext pulls TS packets and feeds them to the decoder until a PES
// packet emits or the stream ends, at which point Flush is consulted.
func (r *PesPacketReader) decodeNext() (*PesPacket, error) {
	for {
		tp, err := r.tsReader.ReadTsPacket()
		if err != nil {
			return nil, err
		}
		if tp == nil {
			return r.decoder.Flush()
		}
		pkt, err := r.decoder.ProcessTsPacket(tp)
		if err != nil {
			return nil, err
		}
		if pkt != nil {
			return pkt, nil
		}
	}
}
