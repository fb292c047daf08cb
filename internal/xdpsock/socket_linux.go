//go:build linux

package xdpsock

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"

	"github.com/fluxio/fluxio/internal/logging"
	"github.com/fluxio/fluxio/internal/ring"
	"github.com/fluxio/fluxio/internal/umem"
)

// wakeupCoalesceWindow bounds how often a single ring's wakeup
// syscall can fire. A caller that decides to wake a ring more than
// once inside the same batch (split mode's FluxRx and FluxTx each make
// that call independently) would otherwise turn into a sendto() storm
// under load; one token per window caps it at roughly the "never retry
// a failed wake more than once per batch" rate the ring's
// needs_wakeup flag already implies.
const wakeupCoalesceWindow = 50 * time.Microsecond

// socket is the real Linux AF_XDP backend. It owns the kernel socket
// fd, the UMEM arena, and the four mmap'd ring regions.
type socket struct {
	fd    int
	arena *umem.Arena

	mmapRX, mmapFill, mmapTX, mmapComp []byte

	rings Rings

	rxFlags   *uint32
	txFlags   *uint32
	fillFlags *uint32
	compFlags *uint32

	rxWakeLimiter *rate.Limiter
	txWakeLimiter *rate.Limiter

	logger *logging.Logger
}

// Open creates and fully configures an AF_XDP socket per cfg: socket
// creation, UMEM registration, the four ring-size options, ring
// mmap'ing at the kernel-reported offsets, and binding to
// (interface, queue_id). Returns InterfaceNotSupported-, PermissionDenied-,
// and Io-flavored errors (wrapped by the caller into the library's
// error kinds) on any step failure.
func Open(cfg Config) (Socket, error) {
	arena, err := umem.Create(cfg.FrameSize, cfg.FrameCount, umem.Flags{HugePages: cfg.HugePages})
	if err != nil {
		return nil, fmt.Errorf("xdpsock: umem create: %w", err)
	}

	fd, err := unix.Socket(unix.AF_XDP, unix.SOCK_RAW, 0)
	if err != nil {
		arena.Teardown()
		return nil, fmt.Errorf("xdpsock: socket: %w", err)
	}

	s := &socket{
		fd:            fd,
		arena:         arena,
		rxWakeLimiter: rate.NewLimiter(rate.Every(wakeupCoalesceWindow), 1),
		txWakeLimiter: rate.NewLimiter(rate.Every(wakeupCoalesceWindow), 1),
		logger:        cfg.Logger,
	}
	if err := s.setup(cfg); err != nil {
		unix.Close(fd)
		arena.Teardown()
		return nil, err
	}
	return s, nil
}

func (s *socket) setup(cfg Config) error {
	mem := s.arena.Bytes()
	umemReg := unix.XDPUmemReg{
		Addr:     uint64(uintptr(unsafe.Pointer(&mem[0]))),
		Len:      s.arena.Size(),
		Size:     cfg.FrameSize,
		Headroom: 0,
	}
	if err := s.setsockopt(unix.XDP_UMEM_REG, unsafe.Pointer(&umemReg), unsafe.Sizeof(umemReg)); err != nil {
		return fmt.Errorf("xdpsock: register umem: %w", err)
	}

	if err := s.setRingSize(unix.XDP_UMEM_FILL_RING, cfg.FillRingSize); err != nil {
		return fmt.Errorf("xdpsock: set fill ring size: %w", err)
	}
	if err := s.setRingSize(unix.XDP_UMEM_COMPLETION_RING, cfg.CompRingSize); err != nil {
		return fmt.Errorf("xdpsock: set completion ring size: %w", err)
	}
	if err := s.setRingSize(unix.XDP_RX_RING, cfg.RxRingSize); err != nil {
		return fmt.Errorf("xdpsock: set rx ring size: %w", err)
	}
	if err := s.setRingSize(unix.XDP_TX_RING, cfg.TxRingSize); err != nil {
		return fmt.Errorf("xdpsock: set tx ring size: %w", err)
	}

	var off unix.XDPMmapOffsets
	offLen := uint32(unsafe.Sizeof(off))
	if err := s.getsockopt(unix.XDP_MMAP_OFFSETS, unsafe.Pointer(&off), &offLen); err != nil {
		return fmt.Errorf("xdpsock: get mmap offsets: %w", err)
	}

	rxMem, err := s.mmapRing(unix.XDP_PGOFF_RX_RING, off.Rx, cfg.RxRingSize, uint64(unsafe.Sizeof(ring.Descriptor{})))
	if err != nil {
		return fmt.Errorf("xdpsock: mmap rx ring: %w", err)
	}
	s.mmapRX = rxMem

	fillMem, err := s.mmapRing(unix.XDP_UMEM_PGOFF_FILL_RING, off.Fr, cfg.FillRingSize, 8)
	if err != nil {
		return fmt.Errorf("xdpsock: mmap fill ring: %w", err)
	}
	s.mmapFill = fillMem

	txMem, err := s.mmapRing(unix.XDP_PGOFF_TX_RING, off.Tx, cfg.TxRingSize, uint64(unsafe.Sizeof(ring.Descriptor{})))
	if err != nil {
		return fmt.Errorf("xdpsock: mmap tx ring: %w", err)
	}
	s.mmapTX = txMem

	compMem, err := s.mmapRing(unix.XDP_UMEM_PGOFF_COMPLETION_RING, off.Cr, cfg.CompRingSize, 8)
	if err != nil {
		return fmt.Errorf("xdpsock: mmap completion ring: %w", err)
	}
	s.mmapComp = compMem

	rxDesc := unsafe.Slice((*ring.Descriptor)(unsafe.Pointer(&rxMem[off.Rx.Desc])), cfg.RxRingSize)
	rxCounters := &ring.Counters{
		Producer: (*uint32)(unsafe.Pointer(&rxMem[off.Rx.Producer])),
		Consumer: (*uint32)(unsafe.Pointer(&rxMem[off.Rx.Consumer])),
		Mask:     cfg.RxRingSize - 1,
	}
	s.rxFlags = (*uint32)(unsafe.Pointer(&rxMem[off.Rx.Flags]))

	fillDesc := unsafe.Slice((*uint64)(unsafe.Pointer(&fillMem[off.Fr.Desc])), cfg.FillRingSize)
	fillCounters := &ring.Counters{
		Producer: (*uint32)(unsafe.Pointer(&fillMem[off.Fr.Producer])),
		Consumer: (*uint32)(unsafe.Pointer(&fillMem[off.Fr.Consumer])),
		Mask:     cfg.FillRingSize - 1,
	}
	s.fillFlags = (*uint32)(unsafe.Pointer(&fillMem[off.Fr.Flags]))

	txDesc := unsafe.Slice((*ring.Descriptor)(unsafe.Pointer(&txMem[off.Tx.Desc])), cfg.TxRingSize)
	txCounters := &ring.Counters{
		Producer: (*uint32)(unsafe.Pointer(&txMem[off.Tx.Producer])),
		Consumer: (*uint32)(unsafe.Pointer(&txMem[off.Tx.Consumer])),
		Mask:     cfg.TxRingSize - 1,
	}
	s.txFlags = (*uint32)(unsafe.Pointer(&txMem[off.Tx.Flags]))

	compDesc := unsafe.Slice((*uint64)(unsafe.Pointer(&compMem[off.Cr.Desc])), cfg.CompRingSize)
	compCounters := &ring.Counters{
		Producer: (*uint32)(unsafe.Pointer(&compMem[off.Cr.Producer])),
		Consumer: (*uint32)(unsafe.Pointer(&compMem[off.Cr.Consumer])),
		Mask:     cfg.CompRingSize - 1,
	}
	s.compFlags = (*uint32)(unsafe.Pointer(&compMem[off.Cr.Flags]))

	if *rxCounters.Producer < *rxCounters.Consumer {
		if s.logger != nil {
			s.logger.LogRingCorruption("rx", *rxCounters.Producer, *rxCounters.Consumer)
		}
		return fmt.Errorf("xdpsock: rx ring: %w", ErrRingCorruption)
	}

	s.rings = Rings{
		RX:   ring.NewConsumer[ring.Descriptor](rxDesc, rxCounters),
		Fill: ring.NewProducer[uint64](fillDesc, fillCounters),
		TX:   ring.NewProducer[ring.Descriptor](txDesc, txCounters),
		Comp: ring.NewConsumer[uint64](compDesc, compCounters),
	}

	return s.bind(cfg)
}

func (s *socket) bind(cfg Config) error {
	iface, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		return fmt.Errorf("xdpsock: interface %q: %w", cfg.Interface, ErrInterfaceNotSupported)
	}

	var flags uint16
	if cfg.ZeroCopy {
		flags |= unix.XDP_ZEROCOPY
	} else {
		flags |= unix.XDP_COPY
	}
	if cfg.NeedWakeup {
		flags |= unix.XDP_USE_NEED_WAKEUP
	}

	sa := &unix.SockaddrXDP{
		Flags:   flags,
		Ifindex: uint32(iface.Index),
		QueueID: cfg.QueueID,
	}
	if err := unix.Bind(s.fd, sa); err != nil {
		return fmt.Errorf("xdpsock: bind: %w", err)
	}
	return nil
}

func (s *socket) mmapRing(pgoff int64, off unix.XDPRingOffset, size uint32, descSize uint64) ([]byte, error) {
	total := off.Desc + uint64(size)*descSize
	return unix.Mmap(s.fd, pgoff, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
}

func (s *socket) setRingSize(opt int, size uint32) error {
	return s.setsockopt(opt, unsafe.Pointer(&size), unsafe.Sizeof(size))
}

func (s *socket) setsockopt(opt int, val unsafe.Pointer, size uintptr) error {
	_, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(s.fd), uintptr(unix.SOL_XDP), uintptr(opt), uintptr(val), size, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *socket) getsockopt(opt int, val unsafe.Pointer, size *uint32) error {
	_, _, errno := unix.Syscall6(unix.SYS_GETSOCKOPT, uintptr(s.fd), uintptr(unix.SOL_XDP), uintptr(opt), uintptr(val), uintptr(unsafe.Pointer(size)), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

func (s *socket) Arena() *umem.Arena { return s.arena }
func (s *socket) Rings() Rings       { return s.rings }

func (s *socket) NeedsWakeupRX() bool { return atomic.LoadUint32(s.fillFlags)&unix.XDP_RING_NEED_WAKEUP != 0 }
func (s *socket) NeedsWakeupTX() bool { return atomic.LoadUint32(s.txFlags)&unix.XDP_RING_NEED_WAKEUP != 0 }

// wake issues the sendto(fd, NULL, 0, MSG_DONTWAIT, NULL, 0) equivalent
// that nudges the kernel to resume consuming a ring it parked.
func (s *socket) wake() error {
	_, _, errno := unix.Syscall6(unix.SYS_SENDTO, uintptr(s.fd), 0, 0, uintptr(unix.MSG_DONTWAIT), 0, 0)
	if errno != 0 && errno != unix.EAGAIN && errno != unix.EBUSY && errno != unix.ENOBUFS {
		return errno
	}
	return nil
}

// WakeupRX nudges the kernel to resume filling RX, subject to
// rxWakeLimiter: a second call inside the same coalesce window is a
// silent no-op rather than a second syscall.
func (s *socket) WakeupRX() error {
	if !s.rxWakeLimiter.Allow() {
		return nil
	}
	return s.wake()
}

// WakeupTX nudges the kernel to resume draining TX, subject to
// txWakeLimiter, mirroring WakeupRX.
func (s *socket) WakeupTX() error {
	if !s.txWakeLimiter.Allow() {
		return nil
	}
	return s.wake()
}

func (s *socket) WaitReadable(ctx context.Context) error {
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	timeoutMs := -1
	if deadline, ok := ctx.Deadline(); ok {
		if ms := int(timeUntilMs(deadline)); ms >= 0 {
			timeoutMs = ms
		}
	}
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err == unix.EINTR {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			continue
		}
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
}

func (s *socket) Stats() (Stats, error) {
	var raw unix.XDPStatistics
	size := uint32(unsafe.Sizeof(raw))
	if err := s.getsockopt(unix.XDP_STATISTICS, unsafe.Pointer(&raw), &size); err != nil {
		return Stats{}, fmt.Errorf("xdpsock: stats: %w", err)
	}
	return Stats{
		RxDropped:        raw.Rx_dropped,
		RxInvalidDescs:   raw.Rx_invalid_descs,
		TxInvalidDescs:   raw.Tx_invalid_descs,
		RxRingFull:       raw.Rx_ring_full,
		RxFillEmptyDescs: raw.Rx_fill_ring_empty_descs,
	}, nil
}

func (s *socket) Close() error {
	if s.fd >= 0 {
		unix.Close(s.fd)
		s.fd = -1
	}
	for _, m := range [][]byte{s.mmapRX, s.mmapFill, s.mmapTX, s.mmapComp} {
		if m != nil {
			unix.Munmap(m)
		}
	}
	return s.arena.Teardown()
}
