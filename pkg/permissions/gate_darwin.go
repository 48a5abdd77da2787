//go:build darwin

package permissions

/*
#cgo darwin LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>

static Boolean axIsTrusted(void) {
        return AXIsProcessTrusted();
}

static void axRequestTrust(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
}
*/
import "C"

func platformTrusted() bool {
	return C.axIsTrusted() != C.Boolean(0)
}

// platformRequestTrust asks TCC to show the accessibility consent dialog.
// The call returns immediately; the grant lands asynchronously.
func platformRequestTrust() {
	C.axRequestTrust()
}
