//go:build !darwin && !linux

package keychain

func platformStore() secureStore {
	return nil
}
