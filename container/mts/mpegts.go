/*
NAME
  mpegts.go - MPEG-TS wire-format constants shared across the header,
  adaptation field and payload codecs.

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

// Package mts provides MPEG-TS demultiplexing, PES reassembly, and the
// program-table/adaptation-field codecs that back them.
package mts

// PacketSize is the fixed size in bytes of a single MPEG-TS packet.
const PacketSize = 188

// Standard program IDs for program specific information MPEG-TS packets.
const (
	PatPid = 0
	PmtPid = 4096
)

// HeadSize is the size of an MPEG-TS packet header.
const HeadSize = 4

// DefaultAdaptationBodySize is the minimum size of an adaptation field body
// once its flags byte has been accounted for.
const DefaultAdaptationBodySize = 1
