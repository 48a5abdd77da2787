//go:build darwin

package notify

/*
#cgo LDFLAGS: -framework AudioToolbox
#include <AudioToolbox/AudioToolbox.h>

static void playSystemSoundID(unsigned int soundID) {
	AudioServicesPlaySystemSound((SystemSoundID)soundID);
}
*/
import "C"

func playSystemSound(id int) {
	if id <= 0 {
		return
	}
	C.playSystemSoundID(C.uint(id))
}
