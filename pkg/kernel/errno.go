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

package kernel

import (
	"fmt"
)

// Errno is a syscall-visible error code. The numeric values follow the
// conventional errno assignments; the set is closed to what the kernel
// actually returns.
type Errno uintptr

const (
	// EIO signals a collaborator I/O failure.
	EIO Errno = 5

	// ENODEV signals an absent collaborator (e.g. kwrite with no console).
	ENODEV Errno = 19

	// EINVAL signals syscall argument validation failure.
	EINVAL Errno = 22

	// ENOSYS signals an invalid or unallocated syscall number.
	ENOSYS Errno = 38
)

// Error implements error.Error.
func (e Errno) Error() string {
	switch e {
	case EIO:
		return "I/O error"
	case ENODEV:
		return "no such device"
	case EINVAL:
		return "invalid argument"
	case ENOSYS:
		return "function not implemented"
	default:
		return fmt.Sprintf("errno %d", uintptr(e))
	}
}

// errnoReturn is the value written to the saved return register for an
// errno: the negated code, in two's complement.
func errnoReturn(e Errno) uint64 {
	v := uint64(e)
	return -v
}

// errorReturn converts a syscall error into its return-register value.
func errorReturn(err error) uint64 {
	if e, ok := err.(Errno); ok {
		return errnoReturn(e)
	}
	// Non-errno errors are kernel bugs; surface them as EINVAL rather
	// than leaking an unstable value to the lower ring.
	return errnoReturn(EINVAL)
}
