// Package fixed provides a contiguous array whose capacity is fixed at
// construction.
//
// The backing storage is allocated once and never reallocated, so pointers
// returned by Ref stay valid until the element is erased. Insertion past
// capacity fails with an overflow error instead of growing:
//
//	verts := fixed.New[Vertex](6)
//	for _, v := range quad {
//	    if err := verts.PushBack(v); err != nil {
//	        return err
//	    }
//	}
//
// Erase shifts the tail down and moves the size boundary. To remove every
// element matching a predicate, partition first and erase the tail, or use
// RemoveFunc which does both.
//
// Array is not safe for concurrent use.
package fixed
