/*
NAME
  discontinuity.go - detects discontinuities in a sequence of MPEG-TS
  packets and sets the discontinuity indicator in the adaptation field as
  appropriate.

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

// DiscontinuityRepairer detects broken continuity-counter sequences across
// packets sharing a PID and flips the discontinuity indicator in the
// adaptation field when a gap is observed.
type DiscontinuityRepairer struct {
	expCC map[Pid]int
}

// NewDiscontinuityRepairer returns a DiscontinuityRepairer with no PIDs
// tracked yet; each PID's expected counter is seeded on first observation.
func NewDiscontinuityRepairer() *DiscontinuityRepairer {
	return &DiscontinuityRepairer{expCC: make(map[Pid]int)}
}

// Failed is to be called in the case of a failed send for the given PID.
// This decrements the expected counter for that PID so that it aligns with
// the failed packet's counter, allowing the same packet to be resent
// without being flagged as a discontinuity.
func (dr *DiscontinuityRepairer) Failed(pid Pid) {
	dr.decExpectedCC(pid)
}

// Repair checks p's continuity counter against what is expected for its
// PID. If it doesn't match, the discontinuity indicator is set (creating an
// adaptation field if p doesn't already have one) and the expected counter
// is resynchronized to p's actual value.
func (dr *DiscontinuityRepairer) Repair(p *TsPacket) {
	pid := p.Header.Pid
	cc := int(p.Header.CC)

	expect, known := dr.ExpectedCC(pid)
	if !known {
		dr.SetExpectedCC(pid, cc)
	} else if cc != int(expect) {
		if p.Adaptation != nil {
			p.Adaptation.Discontinuity = true
		} else {
			p.Adaptation = &AdaptationField{Discontinuity: true}
		}
		dr.SetExpectedCC(pid, cc)
	}
	dr.IncExpectedCC(pid)
}

// ExpectedCC returns the expected continuity counter for pid. If pid hasn't
// been observed yet, it returns (0, false).
func (dr *DiscontinuityRepairer) ExpectedCC(pid Pid) (ContinuityCounter, bool) {
	cc, ok := dr.expCC[pid]
	if !ok {
		return 0, false
	}
	return ContinuityCounter(cc), true
}

// IncExpectedCC increments the expected counter for pid, modulo 16.
func (dr *DiscontinuityRepairer) IncExpectedCC(pid Pid) {
	dr.expCC[pid] = (dr.expCC[pid] + 1) & 0xf
}

// decExpectedCC decrements the expected counter for pid, modulo 16.
func (dr *DiscontinuityRepairer) decExpectedCC(pid Pid) {
	dr.expCC[pid] = (dr.expCC[pid] - 1) & 0xf
}

// SetExpectedCC sets the expected counter for pid directly.
func (dr *DiscontinuityRepairer) SetExpectedCC(pid Pid, cc int) {
	dr.expCC[pid] = cc
}
