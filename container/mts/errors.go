/*
NAME
  errors.go - sentinel errors for TS packet and PES packet decoding.

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

import "errors"

// Structural/validation errors.
var (
	ErrInvalidSync       = errors.New("invalid sync byte")
	ErrInvalidPid        = errors.New("invalid pid")
	ErrInvalidInput      = errors.New("invalid input")
	ErrPayloadTooLarge   = errors.New("payload exceeds maximum TS payload size")
	ErrPesHeaderTooShort = errors.New("pes header too short")
	ErrUnexpectedEOS     = errors.New("unexpected end of stream")
)

// API misuse errors.
var (
	ErrAlreadyMarked = errors.New("reader already marked")
	ErrNotMarked     = errors.New("reader not marked")
)
