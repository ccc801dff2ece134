//go:build unix

package buffer

import (
	"golang.org/x/sys/unix"
)

// MmapAllocator allocates anonymous private mappings outside the Go heap.
// Large buffers allocated this way do not add to GC pressure, and their
// pages are returned to the OS as soon as the buffer is freed.
type MmapAllocator struct{}

// Name returns the allocator name.
func (MmapAllocator) Name() string {
	return "mmap"
}

// Allocate maps n zeroed bytes. Mappings are page aligned.
func (MmapAllocator) Allocate(n int) ([]byte, func() error, error) {
	if n == 0 {
		return nil, nil, nil
	}
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	return mem, func() error { return unix.Munmap(mem) }, nil
}
