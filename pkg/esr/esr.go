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

// Package esr decodes ESR_EL1 exception syndrome values into structured
// causes.
//
// Decode is a pure function, total over all 64-bit inputs: reserved and
// unallocated encodings come back with Recognized unset instead of failing.
// Callers decide fatality.
package esr

import (
	"fmt"
)

// Class is the exception-class field of a syndrome (ESR_EL1 bits 31:26).
type Class uint8

// Exception classes handled by the kernel. The numeric values are the
// architectural EC encodings.
const (
	ClassUnknown      Class = 0x00
	ClassWFx          Class = 0x01
	ClassIllegalState Class = 0x0e
	ClassSVC32        Class = 0x11
	ClassSVC64        Class = 0x15
	ClassMsrMrsSystem Class = 0x18
	ClassERET         Class = 0x1a
	ClassIAbortLower  Class = 0x20
	ClassIAbortKernel Class = 0x21
	ClassPCAlignment  Class = 0x22
	ClassDAbortLower  Class = 0x24
	ClassDAbortKernel Class = 0x25
	ClassSPAlignment  Class = 0x26
	ClassSError       Class = 0x2f
	ClassBkptLower    Class = 0x30
	ClassBkptKernel   Class = 0x31
	ClassBRK          Class = 0x3c
)

// String implements fmt.Stringer.String.
func (c Class) String() string {
	switch c {
	case ClassUnknown:
		return "unknown reason"
	case ClassWFx:
		return "trapped WFI/WFE"
	case ClassIllegalState:
		return "illegal execution state"
	case ClassSVC32:
		return "SVC (AArch32)"
	case ClassSVC64:
		return "SVC (AArch64)"
	case ClassMsrMrsSystem:
		return "trapped MSR/MRS"
	case ClassERET:
		return "trapped ERET"
	case ClassIAbortLower:
		return "instruction abort (lower ring)"
	case ClassIAbortKernel:
		return "instruction abort (kernel)"
	case ClassPCAlignment:
		return "PC alignment fault"
	case ClassDAbortLower:
		return "data abort (lower ring)"
	case ClassDAbortKernel:
		return "data abort (kernel)"
	case ClassSPAlignment:
		return "SP alignment fault"
	case ClassSError:
		return "SError"
	case ClassBkptLower:
		return "breakpoint (lower ring)"
	case ClassBkptKernel:
		return "breakpoint (kernel)"
	case ClassBRK:
		return "BRK instruction"
	default:
		return fmt.Sprintf("unallocated class %#02x", uint8(c))
	}
}

// Syndrome field layout.
const (
	classShift = 26
	classMask  = uint64(0x3f) << classShift

	// ilBit is the instruction-length bit.
	ilBit = uint64(1) << 25

	// issMask is the instruction-specific syndrome.
	issMask = uint64(0x1ffffff)

	// svcImmMask extracts the SVC immediate from the ISS.
	svcImmMask = uint64(0xffff)

	// Abort ISS fields.
	wnrBit   = uint64(1) << 6 // write, not read
	s1ptwBit = uint64(1) << 7 // fault on a stage-1 walk
	fscMask  = uint64(0x3f)   // fault status code
)

// Cause is the structured result of decoding one syndrome value.
type Cause struct {
	// Raw is the undecoded syndrome.
	Raw uint64

	// Class is the exception class. For unrecognized encodings this still
	// carries the raw class value for reporting.
	Class Class

	// Recognized is false for reserved or unallocated class encodings.
	// An unrecognized cause carries no class-specific fields.
	Recognized bool

	// Imm is the immediate operand of a service call. Valid for the SVC
	// classes only.
	Imm uint16

	// FaultStatus is the fault status code of an abort. Valid for the
	// abort and alignment classes only.
	FaultStatus uint8

	// Write is true if an abort was caused by a write access. Valid for
	// the data-abort classes only; instruction aborts are execute.
	Write bool

	// WalkFault is true if an abort occurred on a translation-table walk.
	WalkFault bool

	// LowerRing is true if the class itself pins the trap to the lower
	// ring (the "_Lower" abort variants, SVC from the lower ring).
	LowerRing bool
}

// IsAbort returns true if c is a data or instruction abort or an alignment
// fault, i.e. if FaultStatus and the fault address register are meaningful.
func (c Cause) IsAbort() bool {
	switch c.Class {
	case ClassIAbortLower, ClassIAbortKernel, ClassDAbortLower, ClassDAbortKernel,
		ClassPCAlignment, ClassSPAlignment:
		return true
	}
	return false
}

// IsInstructionAbort returns true for the instruction-abort classes.
func (c Cause) IsInstructionAbort() bool {
	return c.Class == ClassIAbortLower || c.Class == ClassIAbortKernel
}

// Decode decodes a raw ESR_EL1 value. It never fails; see Cause.Recognized.
func Decode(value uint64) Cause {
	c := Cause{
		Raw:   value,
		Class: Class((value & classMask) >> classShift),
	}
	iss := value & issMask

	switch c.Class {
	case ClassSVC64:
		c.Recognized = true
		c.Imm = uint16(iss & svcImmMask)
		c.LowerRing = true
	case ClassSVC32:
		c.Recognized = true
		c.Imm = uint16(iss & svcImmMask)
		c.LowerRing = true
	case ClassDAbortLower, ClassDAbortKernel:
		c.Recognized = true
		c.FaultStatus = uint8(iss & fscMask)
		c.Write = iss&wnrBit != 0
		c.WalkFault = iss&s1ptwBit != 0
		c.LowerRing = c.Class == ClassDAbortLower
	case ClassIAbortLower, ClassIAbortKernel:
		c.Recognized = true
		c.FaultStatus = uint8(iss & fscMask)
		c.LowerRing = c.Class == ClassIAbortLower
	case ClassPCAlignment, ClassSPAlignment:
		c.Recognized = true
		c.FaultStatus = uint8(iss & fscMask)
	case ClassUnknown, ClassWFx, ClassIllegalState, ClassMsrMrsSystem,
		ClassERET, ClassSError, ClassBkptLower, ClassBkptKernel, ClassBRK:
		c.Recognized = true
	default:
		// Reserved or unallocated encoding. Representable, not an error.
	}
	return c
}

// String implements fmt.Stringer.String.
func (c Cause) String() string {
	switch {
	case !c.Recognized:
		return fmt.Sprintf("%v (raw %#x)", c.Class, c.Raw)
	case c.Class == ClassSVC64 || c.Class == ClassSVC32:
		return fmt.Sprintf("%v imm=%d", c.Class, c.Imm)
	case c.IsAbort():
		dir := "read"
		if c.Write {
			dir = "write"
		}
		if c.IsInstructionAbort() {
			dir = "execute"
		}
		return fmt.Sprintf("%v fsc=%#02x %s", c.Class, c.FaultStatus, dir)
	default:
		return c.Class.String()
	}
}
