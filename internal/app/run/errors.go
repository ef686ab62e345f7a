package run

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/John-Robertt/rjren/internal/app/planner"
	"github.com/John-Robertt/rjren/internal/domain"
	"github.com/John-Robertt/rjren/internal/infra/fsx"
)

const (
	OpRead    = "read"
	OpResolve = "resolve"
	OpRename  = "rename"
)

// FileError 是单个文件失败时交给 Observer 的错误（保留底层 OS 错误，便于 errors.Is/As）。
type FileError struct {
	Op   string
	Path string
	Dst  string
	Err  error
}

func (e *FileError) Error() string {
	switch e.Op {
	case OpRead:
		return fmt.Sprintf("Cannot read file '%s': %v", e.Path, e.Err)
	case OpResolve:
		return fmt.Sprintf("Cannot choose a new name for '%s': %v", e.Path, e.Err)
	case OpRename:
		return fmt.Sprintf("Cannot rename '%s' to '%s': %v", e.Path, e.Dst, e.Err)
	default:
		return fmt.Sprintf("'%s': %v", e.Path, e.Err)
	}
}

func (e *FileError) Unwrap() error { return e.Err }

// errorCode 把错误映射为 report 中稳定的 error_code。
func errorCode(op string, err error) string {
	switch {
	case fsx.IsPathTooLong(err):
		return domain.ErrCodePathTooLong
	case errors.Is(err, planner.ErrSuffixExhausted):
		return domain.ErrCodeSuffixExhausted
	case fsx.IsCrossDevice(err):
		return domain.ErrCodeCrossDevice
	case fsx.IsPathTypeConflict(err), errors.Is(err, fs.ErrExist):
		return domain.ErrCodeTargetConflict
	case op == OpRead:
		return domain.ErrCodeReadFailed
	default:
		return domain.ErrCodeRenameFailed
	}
}
