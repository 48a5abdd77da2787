//go:build !darwin

package notify

func playSystemSound(int) {}
