// Copyright 2025 The Ferrite Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package trap provides the ARM64 exception-vector table and the
// capture/restore layer that turns a hardware trap into a call carrying a
// fully materialized machine-state snapshot.
//
// The package deliberately does not interpret traps. Each of the sixteen
// vector slots saves the interrupted machine state into a fixed-layout
// Context on the active stack, hands (context, origin) to one of the four
// logical handlers of the installed Handler, restores the Context exactly,
// and executes eret. Whatever the restore step reads is what runs next;
// a scheduler switches contexts by rewriting the Context in place.
//
// Everything except the entry/exit assembly is ordinary Go with no hardware
// dependency and builds on any platform. The assembly boundary itself is
// arm64-only; non-arm64 builds get stubs so the logic above it remains
// host-testable.
package trap

// Category is one of the four architectural exception categories.
type Category uint8

// Exception categories, in vector-table order.
const (
	Sync Category = iota
	IRQ
	FIQ
	SError
)

// String implements fmt.Stringer.String.
func (c Category) String() string {
	switch c {
	case Sync:
		return "Sync"
	case IRQ:
		return "IRQ"
	case FIQ:
		return "FIQ"
	case SError:
		return "SError"
	default:
		return "Unknown"
	}
}

// Origin identifies the privilege/stack context a trap was taken from.
type Origin uint8

// Origins, in vector-table group order.
const (
	// OriginCurrentSp0 is the current level using the shared SP_EL0 stack.
	// The kernel always runs with SPSel=1, so traps through this group
	// indicate corrupted state.
	OriginCurrentSp0 Origin = iota

	// OriginCurrentSpx is the current level on its own stack. This is the
	// ordinary kernel-mode trap origin.
	OriginCurrentSpx

	// OriginLower64 is the lower level executing AArch64.
	OriginLower64

	// OriginLower32 is the lower level executing AArch32. 32-bit tasks are
	// not supported.
	OriginLower32
)

// String implements fmt.Stringer.String.
func (o Origin) String() string {
	switch o {
	case OriginCurrentSp0:
		return "EL1t"
	case OriginCurrentSpx:
		return "EL1h"
	case OriginLower64:
		return "EL0/64"
	case OriginLower32:
		return "EL0/32"
	default:
		return "Unknown"
	}
}

// Vector is an exception vector: one of the sixteen category x origin slots.
type Vector uint8

// Exception vectors, in table order. The slot address of vector v is
// VectorBase + v*VectorStride.
const (
	El1tSync Vector = iota
	El1tIrq
	El1tFiq
	El1tError

	El1hSync
	El1hIrq
	El1hFiq
	El1hError

	El0Sync
	El0Irq
	El0Fiq
	El0Error

	El0Sync32
	El0Irq32
	El0Fiq32
	El0Error32

	VectorCount
)

// Vector table geometry, mandated by the architecture.
const (
	// VectorStride is the spacing of the vector slots (32 instructions).
	VectorStride = 0x80

	// TableAlign is the required alignment of the whole table (VBAR_EL1
	// ignores the low 11 bits).
	TableAlign = 0x800
)

// Category returns the exception category of v.
func (v Vector) Category() Category {
	return Category(v & 3)
}

// Origin returns the origin tag of v.
func (v Vector) Origin() Origin {
	return Origin(v >> 2)
}

// String implements fmt.Stringer.String.
func (v Vector) String() string {
	if v >= VectorCount {
		return "Invalid"
	}
	return v.Origin().String() + "/" + v.Category().String()
}

// Handler receives fully captured traps. Exactly one Handler is installed
// for the lifetime of the kernel.
//
// The handler owns the passed Context until it returns; mutations are
// restored into the machine on exception return. It must not retain the
// pointer: the Context lives on the interrupted stack and dies at eret.
type Handler interface {
	// HandleSync handles a synchronous exception.
	HandleSync(ctx *Context, origin Origin)

	// HandleIRQ handles a normal interrupt.
	HandleIRQ(ctx *Context, origin Origin)

	// HandleFIQ handles a fast interrupt.
	HandleFIQ(ctx *Context, origin Origin)

	// HandleSError handles a system error.
	HandleSError(ctx *Context, origin Origin)
}

// installed is the active Handler. It is written once during boot, before
// interrupts are enabled, and read only from trap entry.
var installed Handler

// Install wires h as the trap handler. It must be called before Init and
// before any trap can be taken.
func Install(h Handler) {
	installed = h
}

// dispatch routes a captured trap to the installed handler.
//
//go:nosplit
func dispatch(v Vector, ctx *Context) {
	h := installed
	if h == nil {
		// A trap before Install is unrecoverable.
		Halt()
		return
	}
	origin := v.Origin()
	switch v.Category() {
	case Sync:
		h.HandleSync(ctx, origin)
	case IRQ:
		h.HandleIRQ(ctx, origin)
	case FIQ:
		h.HandleFIQ(ctx, origin)
	default:
		h.HandleSError(ctx, origin)
	}
}
