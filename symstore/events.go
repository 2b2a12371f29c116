package symstore

import "context"

// Module is the host's module provider, consumed (not implemented) by the
// store and its StoreManager (spec 6).
type Module interface {
	BaseAddress() uint64
	Size() uint64
	Name() string
	Path() string
	ContainingProcessKey() uint64
	Key() uint64
}

// VirtualMemoryReader is the host's memory-reading collaborator, consumed
// by scope-frame resolution and by importers that need to read target
// memory directly (spec 6).
type VirtualMemoryReader interface {
	ReadMemory(ctx context.Context, addressContext, address uint64, buffer []byte) (bytesRead int, err error)
}

// RegisterKind identifies an abstract register queried through
// RegisterContext.
type RegisterKind uint8

const (
	RegInstructionPointer RegisterKind = iota + 1
	RegStackPointer
	RegFramePointer
)

// RegisterContext is the host's register/context provider, consumed by
// ScopeFrameFor (spec 6).
type RegisterContext interface {
	AbstractRegisterValue64(kind RegisterKind) (uint64, error)
	Duplicate() RegisterContext
}

// BasicBlock is one block of a disassembled function, as produced by the
// host's Disassembler (spec 4.5, 6).
type BasicBlock struct {
	StartAddress       uint64
	EndAddress         uint64
	Instructions       int
	OutboundFlowTarget []uint64
}

// Disassembler is the host's disassembler, consumed only for
// public-to-function promotion (spec 4.5, 6).
type Disassembler interface {
	BasicBlocksFrom(entryAddress uint64) ([]BasicBlock, error)
}
