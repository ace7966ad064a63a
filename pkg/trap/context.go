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

package trap

import (
	"fmt"
	"strings"
)

// Context is the fixed-layout machine-state snapshot captured on every trap
// and restored on exception return.
//
// The layout is an ABI shared with entry_arm64.s: field order, sizes and the
// Ctx* offsets below may not change. Capture and restore are exact inverses;
// a handler that mutates nothing resumes the interrupted code bit-for-bit.
type Context struct {
	// Regs are the general purpose registers x0-x30. Regs[30] is the link
	// register. Regs[0] doubles as the syscall return-value slot.
	Regs [31]uint64

	// Sp is the stack pointer of the interrupted context. For lower-ring
	// origins this is SP_EL0; for kernel origins it is the kernel stack
	// pointer at the interruption point. On restore Sp is written to
	// SP_EL0 whenever Pstate targets the lower ring, regardless of the
	// trap's origin; a kernel-target resume continues on the trapped
	// stack and Sp is not consulted.
	Sp uint64

	// Pc is ELR_EL1: the address execution resumes at on eret.
	Pc uint64

	// Pstate is SPSR_EL1: the saved processor state, including the mode
	// (ring) the trap was taken from.
	Pstate uint64

	// Esr is ESR_EL1, the exception syndrome. Valid for synchronous
	// exceptions and SErrors only.
	Esr uint64

	// Far is FAR_EL1, the faulting address. Valid only for the abort and
	// alignment syndrome classes.
	Far uint64
}

// Byte offsets of Context fields, for the entry/exit assembly. Checked
// against the Go layout in context_test.go.
const (
	CtxRegs   = 0x000
	CtxSp     = 0x0f8
	CtxPc     = 0x100
	CtxPstate = 0x108
	CtxEsr    = 0x110
	CtxFar    = 0x118

	// ContextSize is the size of the frame pushed on trap entry.
	ContextSize = 0x120
)

// SetSyscallReturn writes a syscall result into the designated return-value
// register of the saved state. This is the only Context mutation the syscall
// path performs.
func (c *Context) SetSyscallReturn(v uint64) {
	c.Regs[0] = v
}

// LowerRing returns true if the saved processor state indicates the trap was
// taken from the lower privilege ring.
func (c *Context) LowerRing() bool {
	return c.Pstate&PsrModeMask == PsrModeEL0t
}

// String implements fmt.Stringer.String. The format is the multi-line
// register dump used by the fatal report path.
func (c *Context) String() string {
	var b strings.Builder
	for i := 0; i < 30; i += 2 {
		fmt.Fprintf(&b, "x%-2d = %#018x  x%-2d = %#018x\n", i, c.Regs[i], i+1, c.Regs[i+1])
	}
	fmt.Fprintf(&b, "x30 = %#018x  sp  = %#018x\n", c.Regs[30], c.Sp)
	fmt.Fprintf(&b, "pc  = %#018x  pstate = %#018x\n", c.Pc, c.Pstate)
	fmt.Fprintf(&b, "esr = %#018x  far = %#018x", c.Esr, c.Far)
	return b.String()
}
