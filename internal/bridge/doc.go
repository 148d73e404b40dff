// Package bridge synchronizes the grid model with its external flat
// representation.
//
// The bridge serializes the table to a JSON payload, writes it to a
// primary and an optional mirror sink (byte-identical text to both),
// pushes the table dimensions and derived counters outward, and parses
// inbound payloads back into tables. Because local writes can be echoed
// back as inbound updates, the bridge remembers the exact text it last
// wrote and ignores inbound payloads equal to it; dimension echoes are
// guarded by a generation-counted suppression window rather than a
// boolean latch, so rapid repeated publish cycles stay correct.
package bridge
