/*
NAME
  fixtures_test.go - shared TS/PES wire-format fixtures used by this
  package's reader and writer tests.

DESCRIPTION
  See Readme.md

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>
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

	"github.com/ausocean/mpegts/container/mts/pes"
	"github.com/ausocean/mpegts/container/mts/psi"
)

// testVideoPID is the elementary stream PID used by the fragmented-frame
// fixtures below.
const testVideoPID Pid = 256

// writeTsRaw wraps payload in a TsPacket with the given PID, PUSI and
// adaptation field, and writes its wire form to b.
func writeTsRaw(b *bytes.Buffer, pid Pid, pusi bool, payload []byte, adapt *AdaptationField) error {
	data, err := NewBytes(payload)
	if err != nil {
		return err
	}
	pkt := &TsPacket{
		Header:     TsHeader{Pid: pid},
		PUSI:       pusi,
		Adaptation: adapt,
		Payload:    TsRaw{Data: data},
	}
	return WriteTsPacket(b, pkt)
}

// writePSI is a helper function that writes a default PAT followed by a
// default PMT, as found at the start of a clip.
func writePSI(b *bytes.Buffer) error {
	pat := psi.AddPadding(psi.NewPATPSI().Bytes())
	if err := writeTsRaw(b, Pid(PatPid), true, pat, nil); err != nil {
		return err
	}
	pmt := psi.AddPadding(psi.NewPMTPSI().Bytes())
	return writeTsRaw(b, Pid(PmtPid), true, pmt, nil)
}

// writeFrame forms a PES packet from a frame, PTS-only and unbounded (as a
// live encoder would emit), then fragments it across MPEG-TS packets and
// writes them to b. Only the leading fragment carries an adaptation field,
// with a random-access indicator and PCR. The PES prefix is built with
// pesBytes, the package's own writer, rather than a second encoding path.
func writeFrame(b *bytes.Buffer, frame []byte, pts uint64) error {
	empty, err := NewBytes(nil)
	if err != nil {
		return err
	}
	prefix := pesBytes(Pes{
		Header: PesHeader{
			StreamId:     StreamId(pes.H264SID),
			PTS:          &pts,
			HeaderLength: 5,
			hasOptional:  true,
		},
		Data: empty,
	})
	buf := append(prefix, frame...)

	pusi := true
	for len(buf) != 0 {
		max := MaxTsPayloadSize
		var adapt *AdaptationField
		if pusi {
			pcr := uint64(0)
			adapt = &AdaptationField{RandomAccess: true, PCR: &pcr}
			max = PacketSize - HeadSize - 8 // length byte + flags byte + 6-byte PCR.
		}
		n := max
		if n > len(buf) {
			n = len(buf)
		}

		if err := writeTsRaw(b, testVideoPID, pusi, buf[:n], adapt); err != nil {
			return err
		}
		buf = buf[n:]
		pusi = false
	}
	return nil
}
