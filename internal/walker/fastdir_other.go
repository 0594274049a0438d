//go:build !linux

package walker

func newFastReader() fastReader {
	return portableReader{}
}
