/*
NAME
  options.go - functional options for configuring a TsPacketReader or
  PesPacketDecoder.

DESCRIPTION
  See Readme.md

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import "github.com/ausocean/utils/logging"

// WithLogger is an option that can be passed to NewTsPacketReader to supply
// a logger used for trace-level reporting of skipped malformed packets.
func WithLogger(log logging.Logger) func(*TsPacketReader) error {
	return func(r *TsPacketReader) error {
		r.log = log
		return nil
	}
}

// WithDecoderLogger is the PesPacketDecoder counterpart of WithLogger, used
// for trace-level reporting of dropped over-length PES packets.
func WithDecoderLogger(log logging.Logger) func(*PesPacketDecoder) error {
	return func(d *PesPacketDecoder) error {
		d.log = log
		return nil
	}
}

// IgnoreHeaderLength is an option that can be passed to NewPesPacketDecoder
// to force every PES packet to be treated as unbounded (never completed by
// pes_packet_length), overriding the TS_IGNORE_HEADER_LENGTH environment
// variable sampled at construction time.
func IgnoreHeaderLength(ignore bool) func(*PesPacketDecoder) error {
	return func(d *PesPacketDecoder) error {
		d.ignoreHeaderLength = ignore
		return nil
	}
}
