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

//go:build !arm64
// +build !arm64

package trap

import (
	"errors"
)

// Host stubs. The classification, dispatch and scheduling layers above the
// assembly boundary are exercised on any platform; the boundary itself only
// exists on arm64.

// Halt panics: there is no processor to stop on a host build.
func Halt() {
	panic("trap: Halt on non-arm64 host")
}

// DisableInterrupts is a no-op on host builds.
func DisableInterrupts() (flags uint64) {
	return 0
}

// RestoreInterrupts is a no-op on host builds.
func RestoreInterrupts(flags uint64) {
}

// EnableInterrupts is a no-op on host builds.
func EnableInterrupts() {
}

// Init always fails on host builds; there is no VBAR_EL1 to program.
func Init() error {
	return errors.New("trap: vector table requires arm64")
}
