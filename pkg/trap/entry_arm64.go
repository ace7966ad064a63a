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

//go:build arm64
// +build arm64

package trap

import (
	"fmt"
)

// Implemented in lib_arm64.s.

// Halt stops the processor: interrupts masked, wfi loop. It does not return.
func Halt()

// DisableInterrupts masks IRQ and FIQ delivery and returns the previous
// DAIF value for RestoreInterrupts.
//
//go:nosplit
func DisableInterrupts() (flags uint64)

// RestoreInterrupts restores a DAIF value saved by DisableInterrupts.
//
//go:nosplit
func RestoreInterrupts(flags uint64)

// EnableInterrupts unmasks IRQ delivery. Called once at the end of boot,
// after Install and Init.
//
//go:nosplit
func EnableInterrupts()

// addrOfVectors returns the address of the vector table emitted in
// entry_arm64.s.
func addrOfVectors() uintptr

// setVBAR installs a vector table base address.
func setVBAR(addr uintptr)

// Init points VBAR_EL1 at the vector table. The linker script is responsible
// for placing the table on a TableAlign boundary; Init refuses a misaligned
// table rather than installing vectors the hardware would truncate.
func Init() error {
	addr := addrOfVectors()
	if addr&(TableAlign-1) != 0 {
		return fmt.Errorf("trap: vector table at %#x is not %#x-aligned", addr, TableAlign)
	}
	setVBAR(addr)
	return nil
}

// trapEntry is the common entry point called from the assembly vector stubs
// with a captured Context. It runs with trap sources masked by the
// architecture; nothing here may re-enable them.
//
//go:nosplit
func trapEntry(ctx *Context, vector uint64) {
	dispatch(Vector(vector), ctx)
}
