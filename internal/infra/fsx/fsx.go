package fsx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultMaxPath 是路径长度上限（字节，含目录部分）；路径长度 >= 该值视为过长。
const DefaultMaxPath = 260

// PathTypeConflictError 表示目标路径已被占用（文件、目录或其他类型）。
// 上层可把它映射为 error_code=target_conflict。
type PathTypeConflictError struct {
	Path string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("target %q already exists (%s)", e.Path, e.Got)
}

func (e *PathTypeConflictError) Unwrap() error { return fs.ErrExist }

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 改名只发生在同一目录内，理论上不会出现；出现时必须失败，不做 copy+delete。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cross-device rename %q -> %q: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// PathTooLongError 表示路径超过长度上限。
type PathTooLongError struct {
	Path string
	Len  int
	Max  int
}

func (e *PathTooLongError) Error() string {
	return fmt.Sprintf("path too long (%d >= %d bytes): %s", e.Len, e.Max, e.Path)
}

func IsPathTooLong(err error) bool {
	var e *PathTooLongError
	return errors.As(err, &e)
}

// CheckPathLen 校验 path 的字节长度；max <= 0 时使用 DefaultMaxPath。
func CheckPathLen(path string, max int) error {
	if max <= 0 {
		max = DefaultMaxPath
	}
	if len(path) >= max {
		return &PathTooLongError{Path: path, Len: len(path), Max: max}
	}
	return nil
}

// Lstat 在 fsys 支持时不跟随符号链接，否则退化为 Stat。
func Lstat(fsys afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		fi, _, err := l.LstatIfPossible(path)
		return fi, err
	}
	return fsys.Stat(path)
}

// Exists 判断 path 上是否存在任何条目（文件、目录、符号链接都算占用）。
// 除“不存在”以外的错误原样返回，由调用方决定如何处理。
func Exists(fsys afero.Fs, path string) (bool, error) {
	_, err := Lstat(fsys, path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Rename 封装 fsys.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(fsys afero.Fs, src, dst string) error {
	if err := fsys.Rename(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// RenameNoOverwrite 在 rename 前立即再探测一次 dst，已存在则返回 PathTypeConflictError。
//
// 注意：探测与 rename 之间仍有极小的竞争窗口（外部进程恰好创建 dst），这是已接受的行为。
func RenameNoOverwrite(fsys afero.Fs, src, dst string) error {
	fi, err := Lstat(fsys, dst)
	if err == nil {
		return &PathTypeConflictError{Path: dst, Got: describe(fi)}
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return Rename(fsys, src, dst)
}

func describe(fi os.FileInfo) string {
	switch {
	case fi.IsDir():
		return "dir"
	case fi.Mode().IsRegular():
		return "file"
	default:
		return fi.Mode().Type().String()
	}
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（同目录临时文件 + rename），已存在则覆盖。
// 只用于 report 等工具自身产物，绝不用于被扫描的输入文件。
func WriteFileAtomicReplace(fsys afero.Fs, dir, name string, data []byte) error {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'，且不以 .txt 结尾，避免被下一次扫描拾取）。
	tmp, err := afero.TempFile(fsys, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fsys.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	// rename 原子替换到最终文件名；成功后 defer 中的 Remove 只会得到 not-exist。
	return Rename(fsys, tmpName, dst)
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
