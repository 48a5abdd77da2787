//go:build darwin

package tap

/*
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

// NSEventTypeSystemDefined arrives through a CGEventTap as raw type 14.
#define kSystemDefinedEventType ((CGEventType)14)

extern CGEventRef goQuartzTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFRunLoopSourceRef createQuartzTap(uintptr_t handle, CGEventMask mask, int listenOnly, CFMachPortRef *tapOut) {
        CGEventTapOptions options = listenOnly ? kCGEventTapOptionListenOnly : kCGEventTapOptionDefault;
        CFMachPortRef tap = CGEventTapCreate(kCGSessionEventTap,
                                             kCGHeadInsertEventTap,
                                             options,
                                             mask,
                                             goQuartzTapCallback,
                                             (void *)handle);
        if (tap == NULL) {
                return NULL;
        }
        CGEventTapEnable(tap, true);
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        if (source == NULL) {
                CGEventTapEnable(tap, false);
                CFRelease(tap);
                return NULL;
        }
        *tapOut = tap;
        return source;
}

static CGEventMask maskBit(CGEventType type) {
        return ((CGEventMask)1) << type;
}

static int64_t eventKeycode(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
}

static int secondaryFnActive(CGEventRef event) {
        return (CGEventGetFlags(event) & kCGEventFlagMaskSecondaryFn) != 0;
}
*/
import "C"

import (
	"errors"
	"log/slog"
	"runtime"
	"runtime/cgo"
	"sync/atomic"
	"time"
	"unsafe"
)

func defaultSource() Source {
	return &quartzSource{}
}

// quartzSource binds a CGEventTap to a dedicated run-loop thread and
// recovers from forced disables inside the callback itself.
type quartzSource struct {
	opts   Options
	logger *slog.Logger

	handle cgo.Handle
	tap    C.CFMachPortRef
	loop   C.CFRunLoopRef
	done   chan struct{}

	reenables atomic.Uint64
}

func (s *quartzSource) Start(opts Options) error {
	s.opts = opts
	s.logger = opts.Logger

	var mask C.CGEventMask
	if opts.Mask.Has(MaskFlagsChanged) {
		mask |= C.maskBit(C.kCGEventFlagsChanged)
	}
	if opts.Mask.Has(MaskKeyDown) {
		mask |= C.maskBit(C.kCGEventKeyDown)
	}
	if opts.Mask.Has(MaskSystemDefined) {
		mask |= C.maskBit(C.kSystemDefinedEventType)
	}

	listenOnly := C.int(1)
	if opts.Mode == ModeIntercept {
		listenOnly = 0
	}

	s.handle = cgo.NewHandle(s)
	var tap C.CFMachPortRef
	source := C.createQuartzTap(C.uintptr_t(s.handle), mask, listenOnly, &tap)
	if source == 0 {
		s.handle.Delete()
		return errors.New("CGEventTapCreate refused (accessibility trust missing or revoked)")
	}
	s.tap = tap
	s.done = make(chan struct{})

	started := make(chan struct{})
	go func() {
		runtime.LockOSThread()
		loop := C.CFRunLoopGetCurrent()
		s.loop = loop
		// CFRunLoopAddSource retains the source; drop our reference here.
		C.CFRunLoopAddSource(loop, source, C.kCFRunLoopCommonModes)
		C.CFRelease(C.CFTypeRef(source))
		close(started)
		C.CFRunLoopRun()
		close(s.done)
	}()
	<-started

	return nil
}

func (s *quartzSource) Stop() {
	if s.loop != 0 {
		C.CFRunLoopStop(s.loop)
		<-s.done
		s.loop = 0
	}
	if s.tap != 0 {
		C.CGEventTapEnable(s.tap, C.bool(false))
		C.CFRelease(C.CFTypeRef(s.tap))
		s.tap = 0
	}
	if s.handle != 0 {
		s.handle.Delete()
		s.handle = 0
	}
}

// reenable recovers from a forced disable synchronously, before the callback
// returns, so at most the disabling round trip is lost.
func (s *quartzSource) reenable() {
	if s.tap != 0 {
		C.CGEventTapEnable(s.tap, C.bool(true))
	}
	count := s.reenables.Add(1)
	if s.logger != nil {
		s.logger.Warn("event tap re-enabled after forced disable", "count", count)
	}
}

//export goQuartzTapCallback
func goQuartzTapCallback(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	handle := cgo.Handle(uintptr(userInfo))
	source, ok := handle.Value().(*quartzSource)
	if !ok {
		return event
	}

	switch eventType {
	case C.kCGEventTapDisabledByTimeout, C.kCGEventTapDisabledByUserInput:
		source.reenable()
		return event
	}

	ev := Event{
		Keycode: int(C.eventKeycode(event)),
		When:    time.Now(),
	}
	switch eventType {
	case C.kCGEventFlagsChanged:
		ev.Kind = KindFlagsChanged
		ev.ModifierDown = C.secondaryFnActive(event) != 0
	case C.kCGEventKeyDown:
		ev.Kind = KindKeyDown
	case C.kSystemDefinedEventType:
		ev.Kind = KindSystemDefined
	default:
		return event
	}

	verdict := source.opts.Handler(ev)
	if source.opts.Mode == ModeIntercept && verdict == VerdictConsume {
		return 0
	}
	return event
}
