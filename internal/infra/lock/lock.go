// Package lock 提供按扫描根目录加锁的进程间互斥，避免两个 rjren 同时改同一棵树。
package lock

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked 表示同一根目录已被另一个进程持有。
var ErrLocked = errors.New("another rjren run holds the lock for this directory")

// RunLock 是一把基于 flock 的咨询锁。锁文件放在 dir（默认 os.TempDir()），不写入被扫描的目录。
type RunLock struct {
	flock *flock.Flock
	path  string
}

// PathFor 返回 root 对应的锁文件路径（root 应为 clean + absolute）。
func PathFor(dir, root string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	sum := sha1.Sum([]byte(filepath.Clean(root)))
	return filepath.Join(dir, "rjren-"+hex.EncodeToString(sum[:8])+".lock")
}

// Acquire 非阻塞地获取 root 的锁；已被占用时返回 ErrLocked。
func Acquire(dir, root string) (*RunLock, error) {
	path := PathFor(dir, root)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to try lock on %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, path)
	}
	return &RunLock{flock: fl, path: path}, nil
}

// Path 返回锁文件路径。
func (l *RunLock) Path() string { return l.path }

// Release 释放锁。锁文件本身保留（删除会与其他进程的 TryLock 产生竞争）。
func (l *RunLock) Release() error {
	if l == nil {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}
