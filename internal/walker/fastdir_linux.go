//go:build linux

package walker

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// linux_dirent64 layout: ino(8) off(8) reclen(2) type(1) name(NUL-terminated).
// d_type is not read: every entry carries size and mtime, so each kept child
// is stat'ed anyway.
const (
	direntReclenOffset = 16
	direntNameOffset   = 19
)

const direntBufSize = 32 * 1024

var direntBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, direntBufSize)
		return &b
	},
}

func newFastReader() fastReader {
	return getdentsReader{}
}

// getdentsReader reads raw directory records with getdents64 and stats each
// kept child relative to the open directory descriptor.
type getdentsReader struct{}

func (getdentsReader) readDir(path string, keep func(string) bool) ([]rawEntry, error) {
	fd, err := openDir(path)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	defer unix.Close(fd)

	bufp := direntBufPool.Get().(*[]byte)
	defer direntBufPool.Put(bufp)
	buf := *bufp

	var out []rawEntry
	for {
		n, err := readDirent(fd, buf)
		if err != nil {
			return nil, &fs.PathError{Op: "getdents", Path: path, Err: err}
		}
		if n <= 0 {
			return out, nil
		}

		for off := 0; off < n; {
			if off+direntNameOffset > n {
				break
			}
			reclen := int(binary.NativeEndian.Uint16(buf[off+direntReclenOffset:]))
			if reclen == 0 || off+reclen > n {
				break
			}
			rec := buf[off : off+reclen]
			off += reclen

			name := direntName(rec[direntNameOffset:])
			if name == "" || name == "." || name == ".." || !keep(name) {
				continue
			}

			var st unix.Stat_t
			if err := fstatat(fd, name, &st); err != nil {
				if errors.Is(err, unix.ENOENT) {
					continue
				}
				return nil, &fs.PathError{Op: "fstatat", Path: path + "/" + name, Err: err}
			}
			sec, nsec := st.Mtim.Unix()
			out = append(out, rawEntry{
				name:     name,
				mode:     fileModeFromStat(st.Mode),
				size:     st.Size,
				modified: time.Unix(sec, nsec),
			})
		}
	}
}

func direntName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func openDir(path string) (int, error) {
	for {
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if err == unix.EINTR {
			continue
		}
		return fd, err
	}
}

func readDirent(fd int, buf []byte) (int, error) {
	for {
		n, err := unix.ReadDirent(fd, buf)
		if err == unix.EINTR {
			continue
		}
		return n, err
	}
}

func fstatat(dirfd int, name string, st *unix.Stat_t) error {
	for {
		err := unix.Fstatat(dirfd, name, st, unix.AT_SYMLINK_NOFOLLOW)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

func fileModeFromStat(m uint32) fs.FileMode {
	mode := fs.FileMode(m & 0o777)
	switch m & unix.S_IFMT {
	case unix.S_IFDIR:
		mode |= fs.ModeDir
	case unix.S_IFLNK:
		mode |= fs.ModeSymlink
	case unix.S_IFIFO:
		mode |= fs.ModeNamedPipe
	case unix.S_IFSOCK:
		mode |= fs.ModeSocket
	case unix.S_IFCHR:
		mode |= fs.ModeDevice | fs.ModeCharDevice
	case unix.S_IFBLK:
		mode |= fs.ModeDevice
	}
	if m&unix.S_ISUID != 0 {
		mode |= fs.ModeSetuid
	}
	if m&unix.S_ISGID != 0 {
		mode |= fs.ModeSetgid
	}
	if m&unix.S_ISVTX != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}
