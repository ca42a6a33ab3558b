//go:build linux || darwin || freebsd

package platform

// PacketBits is the per-probe wire cost charged against the bandwidth
// cap: a bare TCP SYN plus Ethernet/IP/TCP framing, 74 bytes on Unix-like
// kernels.
const PacketBits = 74 * 8

// DefaultSocketCeiling bounds M when the operator does not override it
// with -m, even on platforms with a very high descriptor rlimit.
const DefaultSocketCeiling = 10000

// DefaultReservedDescriptors accounts for stdio and the engine's own
// housekeeping descriptors when deriving M from RLIMIT_NOFILE.
const DefaultReservedDescriptors = 10
