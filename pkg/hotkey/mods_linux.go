//go:build linux

package hotkey

import (
	"fmt"

	"golang.design/x/hotkey"
)

func platformModifier(name string) (hotkey.Modifier, error) {
	switch name {
	case "ctrl":
		return hotkey.ModCtrl, nil
	case "shift":
		return hotkey.ModShift, nil
	case "alt":
		return hotkey.Mod1, nil
	case "cmd":
		return hotkey.Mod4, nil
	default:
		return 0, fmt.Errorf("unsupported modifier %q", name)
	}
}
