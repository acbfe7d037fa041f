/*
NAME
  pid.go - validated primitive types for MPEG-TS packet identifiers, PES
  stream identifiers, continuity counters, and fixed-length byte payloads.

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

// Pid is a 13-bit MPEG-TS packet identifier.
type Pid uint16

// Reserved / well-known PIDs; PidPat is the typed form of the untyped PatPid
// constant declared in mpegts.go.
const (
	PidPat  Pid = PatPid
	PidNull Pid = 0x1fff
)

// NewPid validates p as a 13-bit packet identifier and returns it as a Pid.
func NewPid(p uint16) (Pid, error) {
	if p > 0x1fff {
		return 0, fmt.Errorf("%w: pid %d exceeds 13-bit range", ErrInvalidPid, p)
	}
	return Pid(p), nil
}

// IsNull reports whether p is the null packet PID (0x1fff), used for stuffing.
func (p Pid) IsNull() bool { return p == PidNull }

// StreamId is the 8-bit stream_id field of a PES packet header, identifying
// the kind of elementary stream the payload carries.
type StreamId byte

// Stream ID ranges and reserved values, per ITU-T H.222.0 Table 2-22.
const (
	StreamIdProgramStreamMap StreamId = 0xbc
	StreamIdPrivateStream1   StreamId = 0xbd // Synchronous KLV metadata.
	StreamIdPaddingStream    StreamId = 0xbe
	StreamIdPrivateStream2   StreamId = 0xbf
	StreamIdECMStream        StreamId = 0xf0
	StreamIdEMMStream        StreamId = 0xf1
	StreamIdProgramStreamDir StreamId = 0xff
	StreamIdMetadataStream   StreamId = 0xfc // Asynchronous KLV metadata.

	audioStreamIdLow  = 0xc0
	audioStreamIdHigh = 0xdf
	videoStreamIdLow  = 0xe0
	videoStreamIdHigh = 0xef
)

// NewAudioStreamId validates n as an offset (0-31) into the audio stream_id
// range 0xC0-0xDF and returns the corresponding StreamId.
func NewAudioStreamId(n int) (StreamId, error) {
	if n < 0 || n > int(audioStreamIdHigh-audioStreamIdLow) {
		return 0, fmt.Errorf("%w: audio stream number %d out of range", ErrInvalidInput, n)
	}
	return StreamId(audioStreamIdLow + n), nil
}

// NewVideoStreamId validates n as an offset (0-15) into the video stream_id
// range 0xE0-0xEF and returns the corresponding StreamId.
func NewVideoStreamId(n int) (StreamId, error) {
	if n < 0 || n > int(videoStreamIdHigh-videoStreamIdLow) {
		return 0, fmt.Errorf("%w: video stream number %d out of range", ErrInvalidInput, n)
	}
	return StreamId(videoStreamIdLow + n), nil
}

// IsAudio reports whether id falls within the MPEG audio stream_id range.
func (id StreamId) IsAudio() bool {
	return id >= audioStreamIdLow && id <= audioStreamIdHigh
}

// IsVideo reports whether id falls within the MPEG video stream_id range.
func (id StreamId) IsVideo() bool {
	return id >= videoStreamIdLow && id <= videoStreamIdHigh
}

// IsSyncKLV reports whether id marks synchronous KLV metadata (private_stream_1).
func (id StreamId) IsSyncKLV() bool { return id == StreamIdPrivateStream1 }

// IsAsyncKLV reports whether id marks asynchronous KLV metadata (metadata_stream).
func (id StreamId) IsAsyncKLV() bool { return id == StreamIdMetadataStream }

// IsKLV reports whether id marks KLV metadata, synchronous or asynchronous.
func (id StreamId) IsKLV() bool { return id.IsSyncKLV() || id.IsAsyncKLV() }

// ContinuityCounter is the 4-bit continuity_counter field of a TS packet
// header, incrementing modulo 16 across packets sharing a PID.
type ContinuityCounter byte

// NewContinuityCounter validates cc as a 4-bit counter value.
func NewContinuityCounter(cc byte) (ContinuityCounter, error) {
	if cc > 0x0f {
		return 0, fmt.Errorf("continuity counter %d exceeds 4-bit range", cc)
	}
	return ContinuityCounter(cc), nil
}

// Next returns the counter value following c, wrapping from 15 to 0.
func (c ContinuityCounter) Next() ContinuityCounter {
	return ContinuityCounter((byte(c) + 1) & 0x0f)
}

// MaxTsPayloadSize is the largest payload a single TS packet can carry
// (PacketSize - HeadSize, with no adaptation field present).
const MaxTsPayloadSize = PacketSize - HeadSize

// Bytes is an owned byte buffer carrying at most one TS packet's worth of
// payload.
type Bytes []byte

// NewBytes validates that b does not exceed MaxTsPayloadSize and returns an
// owned copy as Bytes.
func NewBytes(b []byte) (Bytes, error) {
	if len(b) > MaxTsPayloadSize {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds maximum %d", ErrPayloadTooLarge, len(b), MaxTsPayloadSize)
	}
	return Bytes(append([]byte(nil), b...)), nil
}
