package scan

import (
	"context"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/John-Robertt/rjren/internal/domain"
	"github.com/John-Robertt/rjren/internal/infra/fsx"
)

// Visitor 接收遍历事件。Walker 自身不做任何输出，也不做改名。
type Visitor interface {
	// VisitFile 在 Examined 已经 +1 之后调用；实现必须让 st 的 Renamed/Skipped/Errors 之一恰好 +1。
	VisitFile(path string, st *domain.Statistics)
	// FileError 用于遍历阶段就能判定失败的文件（例如路径过长）；Walker 已经计入 Errors。
	FileError(path string, err error)
	// DirError 表示某个目录无法枚举，其子树被整体放弃。
	DirError(dir string, err error)
}

// Walker 深度优先遍历 Root 下的 .txt 文件。
//
// 规则（硬约束）：
// - 每个目录只枚举一次（afero.ReadDir 按名字排序并立即关闭句柄），之后再逐项访问；
//   因此目录内的改名不会导致同一文件被访问两次
// - 只处理普通文件；符号链接与其他特殊文件一律忽略，也不跟随目录符号链接
// - 某个子树枚举失败：报告并放弃该子树，兄弟子树继续
type Walker struct {
	Fs      afero.Fs
	Root    string
	Exclude []string // doublestar 模式，匹配相对 Root 的 '/' 分隔路径
	MaxPath int
}

// Walk 执行遍历。返回值 complete=false 表示至少一个子树被放弃或 ctx 被取消。
func (w Walker) Walk(ctx context.Context, v Visitor, st *domain.Statistics) (complete bool) {
	root := filepath.Clean(w.Root)
	return w.walkDir(ctx, root, v, st)
}

func (w Walker) walkDir(ctx context.Context, dir string, v Visitor, st *domain.Statistics) bool {
	if err := ctx.Err(); err != nil {
		return false
	}

	entries, err := afero.ReadDir(w.Fs, dir)
	if err != nil {
		v.DirError(dir, err)
		return false
	}

	complete := true
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return false
		}

		path := filepath.Join(dir, e.Name())
		if w.excluded(path) {
			continue
		}

		switch {
		case e.IsDir():
			if !w.walkDir(ctx, path, v, st) {
				complete = false
			}
		case e.Mode().IsRegular() && IsTxt(e.Name()):
			st.Examined++
			if err := fsx.CheckPathLen(path, w.MaxPath); err != nil {
				st.Errors++
				v.FileError(path, err)
				continue
			}
			v.VisitFile(path, st)
		}
	}
	return complete
}

func (w Walker) excluded(path string) bool {
	if len(w.Exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(w.Root), path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.Exclude {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// IsTxt 判断文件名是否以 .txt 结尾（ASCII 大小写不敏感），且 ".txt" 之前至少还有一个字符。
func IsTxt(name string) bool {
	const ext = ".txt"
	if len(name) <= len(ext) {
		return false
	}
	tail := name[len(name)-len(ext):]
	for i := 0; i < len(ext); i++ {
		c := tail[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != ext[i] {
			return false
		}
	}
	return true
}

// IsDir 判断 path 是否是目录（用于 CLI 参数校验）。
func IsDir(fsys afero.Fs, path string) (bool, error) {
	fi, err := fsys.Stat(path)
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}
