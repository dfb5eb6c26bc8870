package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// CopyFileVerified copies src to dst, replacing dst, and checks size and
// SHA256 of the written bytes. dst is removed on mismatch. Permission bits
// and modification time are carried over.
func CopyFileVerified(src, dst string) error {
	_, err := copyFile(src, dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, true)
	return err
}

// CopyNew copies src to dst only when dst does not exist yet. It reports
// false without error when dst is already present; an existing file is never
// modified.
func CopyNew(src, dst string) (bool, error) {
	return copyFile(src, dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, false)
}

// Exists reports whether path names an existing filesystem entry.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func copyFile(src, dst string, flags int, verify bool) (bool, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, flags, srcInfo.Mode().Perm())
	if err != nil {
		if flags&os.O_EXCL != 0 && errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}

	fail := func(err error) (bool, error) {
		_ = out.Close()
		_ = os.Remove(dst)
		return false, err
	}

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	var reader io.Reader = in
	var writer io.Writer = out
	if verify {
		reader = io.TeeReader(in, srcHasher)
		writer = io.MultiWriter(out, dstHasher)
	}

	written, err := io.Copy(writer, reader)
	if err != nil {
		return fail(err)
	}
	if err := out.Close(); err != nil {
		return fail(err)
	}

	if verify {
		if written != srcInfo.Size() {
			_ = os.Remove(dst)
			return false, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
		}
		if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
			_ = os.Remove(dst)
			return false, fmt.Errorf("copy hash mismatch: file corrupted during copy")
		}
	}

	// Source permission bits survive the umask and mtime is kept.
	_ = os.Chmod(dst, srcInfo.Mode().Perm())
	mtime := srcInfo.ModTime()
	_ = os.Chtimes(dst, mtime, mtime)
	return true, nil
}
