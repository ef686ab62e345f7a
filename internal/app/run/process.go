package run

import (
	"errors"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/John-Robertt/rjren/internal/code"
	"github.com/John-Robertt/rjren/internal/domain"
)

// Processor 处理单个 .txt 文件：读内容 → 提取 Code → 改名或跳过。
// 所有结论都通过 st 与 Observer 体现，不会向上返回致命错误。
type Processor struct {
	Fs      afero.Fs
	Renamer *Renamer
	Obs     Observer
}

// Process 处理 path，返回供 report 使用的条目（Src 为绝对路径，由调用方改写为相对路径）。
func (p *Processor) Process(path string, st *domain.Statistics) domain.ItemResult {
	item := domain.ItemResult{Src: path}

	content, err := readContent(p.Fs, path)
	if err != nil {
		fe := &FileError{Op: OpRead, Path: path, Err: err}
		st.Errors++
		p.Obs.OnFileError(path, fe)
		item.Status = domain.StatusFailed
		item.ErrorCode = errorCode(OpRead, err)
		item.ErrorMsg = fe.Error()
		return item
	}

	d := Decide(path, content)
	if !d.Renames() {
		st.Skipped++
		p.Obs.OnSkipped(path, d.Reason)
		item.Status = domain.StatusSkipped
		item.Reason = d.Reason
		return item
	}

	item.Code = string(d.Code)
	out := p.Renamer.Rename(d.Src, filepath.Base(d.Dst), st)
	switch {
	case out.Err != nil:
		item.Status = domain.StatusFailed
		item.Dst = out.Dst
		var op string
		var fe *FileError
		if errors.As(out.Err, &fe) {
			op = fe.Op
		}
		item.ErrorCode = errorCode(op, out.Err)
		item.ErrorMsg = out.Err.Error()
	case out.Noop:
		item.Status = domain.StatusSkipped
		item.Reason = domain.ReasonAlreadyNamed
		item.Dst = out.Dst
	default:
		item.Status = domain.StatusRenamed
		item.Dst = out.Dst
	}
	return item
}

// Decide 根据文件内容给出改名决定：命中时 Dst 为同目录下的 <code>.txt，否则给出 Reason。
func Decide(path string, content []byte) domain.Decision {
	c, ok := code.Extract(content)
	if !ok {
		return domain.Decision{Src: path, Reason: domain.ReasonNoPattern}
	}
	return domain.Decision{
		Src:  path,
		Code: c,
		Dst:  filepath.Join(filepath.Dir(path), c.FileName()),
	}
}

// readContent 把整个文件读入内存；句柄在每条返回路径上都会关闭。
func readContent(fsys afero.Fs, path string) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
