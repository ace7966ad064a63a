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

// Useful PSTATE/SPSR bits.
const (
	// DAIF bits: debug, sError, IRQ, FIQ.
	_PSR_D_BIT = 0x00000200
	_PSR_A_BIT = 0x00000100
	_PSR_I_BIT = 0x00000080
	_PSR_F_BIT = 0x00000040

	// PSR mode field.
	PsrModeEL0t = 0x00000000
	PsrModeEL1t = 0x00000004
	PsrModeEL1h = 0x00000005
	PsrModeMask = 0x0000000f

	// KernelFlagsSet is the PSTATE the kernel ring runs with: EL1 on its
	// own stack, all trap sources masked until explicitly enabled.
	KernelFlagsSet = PsrModeEL1h | _PSR_D_BIT | _PSR_A_BIT | _PSR_I_BIT | _PSR_F_BIT

	// UserFlagsSet is the PSTATE a fresh lower-ring context starts with:
	// EL0t, nothing masked.
	UserFlagsSet = PsrModeEL0t
)
