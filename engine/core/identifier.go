package core

import (
	"fmt"
	"sync"
)

// IdentifierPool hands out small integer ids, reusing released slots first.
type IdentifierPool struct {
	mu     sync.Mutex
	owners []interface{}
	// ids below this value are never handed out
	base uint32
}

func NewIdentifierPool(base uint32) *IdentifierPool {
	return &IdentifierPool{
		owners: make([]interface{}, 0, 100),
		base:   base,
	}
}

func (ip *IdentifierPool) Acquire(owner interface{}) uint32 {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	length := uint32(len(ip.owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if ip.owners[i] == nil {
			ip.owners[i] = owner
			return i + ip.base
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	ip.owners = append(ip.owners, owner)
	return uint32(len(ip.owners)) - 1 + ip.base
}

func (ip *IdentifierPool) Release(id uint32) error {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	if id < ip.base {
		return fmt.Errorf("identifier release: id '%d' below base %d. Nothing was done", id, ip.base)
	}
	slot := id - ip.base
	if slot >= uint32(len(ip.owners)) {
		return fmt.Errorf("identifier release: id '%d' out of range (max=%d). Nothing was done", id, uint32(len(ip.owners))+ip.base)
	}
	if ip.owners[slot] == nil {
		return fmt.Errorf("identifier release: id '%d' is not in use. Nothing was done", id)
	}

	// Just zero out the entry, making it available for use.
	ip.owners[slot] = nil
	return nil
}

// Owner returns what was registered for id, or nil.
func (ip *IdentifierPool) Owner(id uint32) interface{} {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	if id < ip.base || id-ip.base >= uint32(len(ip.owners)) {
		return nil
	}
	return ip.owners[id-ip.base]
}

func (ip *IdentifierPool) InUse() int {
	ip.mu.Lock()
	defer ip.mu.Unlock()

	n := 0
	for _, o := range ip.owners {
		if o != nil {
			n++
		}
	}
	return n
}
