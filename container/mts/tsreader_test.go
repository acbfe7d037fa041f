/*
NAME
  tsreader_test.go - tests for tsreader.go's TsPacketReader: PID
  classification, PAT/PMT/PES dispatch, and malformed-packet skipping.

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
	"bytes"
	"testing"

	"github.com/ausocean/mpegts/container/mts/psi"
)

// writeVideoPSI writes a PAT/PMT pair whose PMT declares testVideoPID as its
// sole elementary stream, so that a subsequent writeFrame on that PID is
// classified as TsPes rather than left unknown.
func writeVideoPSI(b *bytes.Buffer) error {
	pat := psi.AddPadding(psi.NewPATPSI().Bytes())
	if err := writeTsRaw(b, Pid(PatPid), true, pat, nil); err != nil {
		return err
	}
	t := psi.NewPMTPSI()
	t.SyntaxSection.SpecificData.(*psi.PMT).StreamSpecificData.PID = uint16(testVideoPID)
	pmt := psi.AddPadding(t.Bytes())
	return writeTsRaw(b, Pid(PmtPid), true, pmt, nil)
}

// TestTsPacketReaderEmptyInput covers S1 at the TS level: an empty stream
// yields a clean EOF, not an error.
func TestTsPacketReaderEmptyInput(t *testing.T) {
	r, err := NewTsPacketReader(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pkt, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt != nil {
		t.Fatalf("got %+v, want nil at EOF", pkt)
	}
}

// TestTsPacketReaderNullPacket covers S2: a single null/stuffing packet
// decodes to TsNull with no adaptation field.
func TestTsPacketReaderNullPacket(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x47, 0x1f, 0xff, 0x10})
	buf.Write(bytes.Repeat([]byte{0xff}, PacketSize-HeadSize))

	r, err := NewTsPacketReader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pkt, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt == nil {
		t.Fatal("expected a packet, got nil")
	}
	if pkt.Header.Pid != PidNull {
		t.Errorf("pid = 0x%04x, want 0x%04x", pkt.Header.Pid, PidNull)
	}
	if _, ok := pkt.Payload.(TsNull); !ok {
		t.Errorf("payload = %T, want TsNull", pkt.Payload)
	}
	if pkt.Adaptation != nil {
		t.Errorf("adaptation = %+v, want nil", pkt.Adaptation)
	}

	pkt, err = r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt != nil {
		t.Fatalf("got %+v, want nil at EOF", pkt)
	}
}

// TestTsPacketReaderPatPmtPesDiscovery covers S3: a PAT announcing a PMT PID,
// a PMT announcing a video ES PID, and a PUSI-marked PES on that PID are
// classified in sequence, culminating in TsPes once the PID is known.
func TestTsPacketReaderPatPmtPesDiscovery(t *testing.T) {
	var clip bytes.Buffer
	if err := writeVideoPSI(&clip); err != nil {
		t.Fatalf("unexpected error writing psi: %v", err)
	}
	body := bytes.Repeat([]byte{0xcd}, 176)
	if err := writeFrame(&clip, body, 0); err != nil {
		t.Fatalf("unexpected error writing frame: %v", err)
	}

	r, err := NewTsPacketReader(&clip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pkt, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pkt.Payload.(TsPat); !ok {
		t.Fatalf("first packet payload = %T, want TsPat", pkt.Payload)
	}

	pkt, err = r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pkt.Payload.(TsPmt); !ok {
		t.Fatalf("second packet payload = %T, want TsPmt", pkt.Payload)
	}

	pkt, err = r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pes, ok := pkt.Payload.(TsPes)
	if !ok {
		t.Fatalf("third packet payload = %T, want TsPes", pkt.Payload)
	}
	if pkt.Header.Pid != testVideoPID {
		t.Errorf("pid = 0x%04x, want 0x%04x", pkt.Header.Pid, testVideoPID)
	}
	if !pkt.PUSI {
		t.Error("expected PUSI on the first PES fragment")
	}
	if pes.Pes.PacketLen != 0 {
		t.Errorf("declared PacketLen = %d, want 0 (unbounded)", pes.Pes.PacketLen)
	}
}

// TestTsPacketReaderUnknownPidDiscarded checks that a PID not yet classified
// by any observed PAT/PMT is surfaced as TsNull rather than TsRaw.
func TestTsPacketReaderUnknownPidDiscarded(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTsRaw(&buf, Pid(0x0200), true, []byte{0x01, 0x02}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := NewTsPacketReader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pkt, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := pkt.Payload.(TsNull); !ok {
		t.Errorf("payload = %T, want TsNull for an unclassified pid", pkt.Payload)
	}
}

// TestTsPacketReaderReservedPidRaw checks that reserved/unsupported PIDs
// (0x0001-0x001F, 0x1FFB) are always surfaced as raw bytes. The raw data is
// the whole payload region, so it includes the writer's 0xFF stuffing.
func TestTsPacketReaderReservedPidRaw(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTsRaw(&buf, Pid(0x0001), false, []byte{0xaa, 0xbb}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := NewTsPacketReader(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pkt, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw, ok := pkt.Payload.(TsRaw)
	if !ok {
		t.Fatalf("payload = %T, want TsRaw", pkt.Payload)
	}
	want := append([]byte{0xaa, 0xbb}, bytes.Repeat([]byte{0xff}, MaxTsPayloadSize-2)...)
	if !bytes.Equal(raw.Data, want) {
		t.Errorf("data = %v, want [0xaa 0xbb] followed by %d stuffing bytes", raw.Data, MaxTsPayloadSize-2)
	}
}

// TestTsPacketReaderSkipsCorrupt covers S7: a corrupt packet (bad sync byte)
// sandwiched between two valid packets is silently skipped.
func TestTsPacketReaderSkipsCorrupt(t *testing.T) {
	var clip bytes.Buffer
	if err := writeTsRaw(&clip, Pid(0x0100), false, []byte{0x01}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	corrupt := make([]byte, PacketSize)
	corrupt[0] = 0x00 // Bad sync byte.
	clip.Write(corrupt)

	if err := writeTsRaw(&clip, Pid(0x0101), false, []byte{0x02}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := NewTsPacketReader(&clip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pkt, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt == nil || pkt.Header.Pid != 0x0100 {
		t.Fatalf("first packet = %+v, want pid 0x0100", pkt)
	}

	pkt, err = r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt == nil || pkt.Header.Pid != 0x0101 {
		t.Fatalf("second packet = %+v, want pid 0x0101 (corrupt packet skipped)", pkt)
	}

	pkt, err = r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt != nil {
		t.Fatalf("got %+v, want nil at EOF", pkt)
	}
}

// TestTsPacketReaderPeekThenRead checks that PeekTsPacket is idempotent and
// that a subsequent ReadTsPacket consumes exactly the peeked packet.
func TestTsPacketReaderPeekThenRead(t *testing.T) {
	var clip bytes.Buffer
	if err := writeTsRaw(&clip, Pid(0x0100), false, []byte{0x01}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := NewTsPacketReader(&clip)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	peeked, err := r.PeekTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peeked == nil {
		t.Fatal("expected a peeked packet")
	}

	again, err := r.PeekTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != peeked {
		t.Errorf("second peek returned a different packet")
	}

	read, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if read != peeked {
		t.Errorf("read after peek returned a different packet")
	}

	pkt, err := r.ReadTsPacket()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pkt != nil {
		t.Fatalf("got %+v, want nil at EOF", pkt)
	}
}
