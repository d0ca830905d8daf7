// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package task

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedRR is the round-robin realtime scheduling policy (SCHED_RR).
const schedRR = 2

// realtimePriority sits in the lower-middle of the realtime priority
// range, enough to keep the 1kHz loop from being starved without
// crowding out anything more urgent on the box.
const realtimePriority = 10

type schedParam struct {
	priority int32
}

// Realtime pins the calling goroutine to its own kernel thread and
// elevates that thread to round-robin realtime scheduling (spec §4.7, §5
// "Scheduling model": the driver task runs at a fixed ≈1kHz rate and must
// not be starved by the host scheduler). It is the same mechanism as
// tve-devices/thread.Realtime, ported from raw syscall numbers to
// golang.org/x/sys/unix and with the sched_param field corrected to the
// kernel's 32-bit int width.
func Realtime() error {
	runtime.LockOSThread()
	tid := unix.Gettid()
	sp := schedParam{priority: realtimePriority}
	_, _, errno := unix.RawSyscall(unix.SYS_SCHED_SETSCHEDULER, uintptr(tid), uintptr(schedRR), uintptr(unsafe.Pointer(&sp)))
	if errno != 0 {
		return errno
	}
	return nil
}
