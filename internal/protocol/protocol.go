// Package protocol holds the scalar types shared between the congestion
// controller and its observers.
package protocol

// A ByteCount in QUIC-style byte units.
type ByteCount int64

// MaxByteCount is the maximum value of a ByteCount.
const MaxByteCount = ByteCount(1<<62 - 1)

// DefaultSegmentSize is the payload size assumed when the host has not yet
// negotiated an MSS. It matches a 1500 byte Ethernet MTU minus IPv4 and TCP
// headers with timestamps.
const DefaultSegmentSize ByteCount = 1448
