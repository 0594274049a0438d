// Package filestat provides per-file statistics used by the walker: line
// counts with binary detection, and recursive directory sizes.
package filestat

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
)

const (
	// DefaultMaxFileSize is the line-counting ceiling used when none is configured.
	DefaultMaxFileSize int64 = 1 << 30

	chunkSize  = 4096
	probeSize  = 512
	textRatio  = 95
	newlineChr = '\n'
)

// LineCounter counts lines in one file. Implementations return 0 for files
// larger than maxSize or classified as binary.
type LineCounter interface {
	CountLines(path string, maxSize int64) (int64, error)
}

// LineCounterFunc adapts a function to LineCounter.
type LineCounterFunc func(path string, maxSize int64) (int64, error)

// CountLines calls f.
func (f LineCounterFunc) CountLines(path string, maxSize int64) (int64, error) {
	return f(path, maxSize)
}

// Default is the byte-scanning LineCounter.
var Default LineCounter = LineCounterFunc(CountLines)

// CountLines counts newline-terminated lines, plus one for trailing content
// without a final newline. maxSize <= 0 disables the ceiling.
func CountLines(path string, maxSize int64) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return 0, nil
	}
	if maxSize > 0 && info.Size() > maxSize {
		return 0, nil
	}

	buf := make([]byte, chunkSize)
	n, err := io.ReadFull(f, buf[:probeSize])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if n == 0 {
		return 0, nil
	}
	if looksBinary(buf[:n]) {
		return 0, nil
	}

	count := int64(bytes.Count(buf[:n], []byte{newlineChr}))
	last := buf[n-1]
	for {
		n, err = f.Read(buf)
		if n > 0 {
			count += int64(bytes.Count(buf[:n], []byte{newlineChr}))
			last = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if last != newlineChr {
		count++
	}
	return count, nil
}

// looksBinary flags a probe containing a NUL byte, or one where fewer than 95%
// of the bytes are text (printable ASCII, whitespace or UTF-8 continuation).
func looksBinary(probe []byte) bool {
	if len(probe) == 0 {
		return false
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		return true
	}
	text := 0
	for _, b := range probe {
		if b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b <= 126) || b >= 128 {
			text++
		}
	}
	return text < len(probe)*textRatio/100
}

// CountLinesParallel counts lines for a batch of files on a fixed pool of
// workers. Results line up with paths; failures count as 0. workers <= 0 uses
// the number of CPUs.
func CountLinesParallel(counter LineCounter, paths []string, maxSize int64, workers int) []int64 {
	if counter == nil {
		counter = Default
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]int64, len(paths))
	if len(paths) == 0 {
		return results
	}

	jobs := make(chan int, len(paths))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go lineWorker(counter, paths, maxSize, jobs, results, &wg)
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// lineWorker writes only the result slots for the indices it receives.
func lineWorker(counter LineCounter, paths []string, maxSize int64, jobs <-chan int, results []int64, wg *sync.WaitGroup) {
	defer wg.Done()
	for i := range jobs {
		count, err := counter.CountLines(paths[i], maxSize)
		if err != nil {
			continue
		}
		results[i] = count
	}
}
