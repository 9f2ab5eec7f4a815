package compiler

import "fmt"

// LabelAllocator hands out unique observation labels. The source this
// system is modeled on kept a single global counter for this; here it is
// explicit state threaded through (or returned alongside) a compilation
// call, never a package-level variable.
type LabelAllocator struct {
	next int
}

// NewLabelAllocator returns an allocator starting from 1.
func NewLabelAllocator() *LabelAllocator {
	return &LabelAllocator{next: 1}
}

// Next returns a fresh label built from prefix, e.g. "ingress#3".
func (a *LabelAllocator) Next(prefix string) string {
	a.next++
	return fmt.Sprintf("%s#%d", prefix, a.next-1)
}
