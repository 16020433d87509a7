package extres

// Allocator hands out byte storage and takes it back.
// Deallocate must be given a slice previously returned by Allocate.
type Allocator interface {
	Allocate(n int) ([]byte, error)
	Deallocate(b []byte) error
}
