package run

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/John-Robertt/rjren/internal/app/planner"
	"github.com/John-Robertt/rjren/internal/domain"
	"github.com/John-Robertt/rjren/internal/infra/fsx"
)

// Renamer 把一个文件改名为同目录下的 desiredName（必要时加 _N 后缀），并更新统计。
//
// 约束：
// - 只改叶子名，永远不跨目录
// - 成功时恰好一次 rename；失败时零次
// - 失败只计数 + 通知，不向上返回致命错误
type Renamer struct {
	Fs       afero.Fs
	Resolver *planner.Resolver
	MaxPath  int
	DryRun   bool
	Obs      Observer
}

// Rename 执行一次改名尝试。st 的 Renamed/Skipped/Errors 恰好其一 +1。
func (r *Renamer) Rename(src, desiredName string, st *domain.Statistics) domain.RenameOutcome {
	src = filepath.Clean(src)
	desired := filepath.Join(filepath.Dir(src), desiredName)

	if err := fsx.CheckPathLen(desired, r.MaxPath); err != nil {
		return r.fail(src, desired, OpResolve, err, st)
	}

	dst, err := r.Resolver.ResolveFor(desired, src)
	if err != nil {
		return r.fail(src, dst, OpResolve, err, st)
	}
	if dst == src {
		st.Skipped++
		r.Obs.OnSkipped(src, domain.ReasonAlreadyNamed)
		return domain.RenameOutcome{Dst: src, Noop: true}
	}
	// _N 后缀会让路径变长：最终路径也必须满足上限。
	if err := fsx.CheckPathLen(dst, r.MaxPath); err != nil {
		return r.fail(src, dst, OpResolve, err, st)
	}

	if r.DryRun {
		r.Resolver.Vacate(src)
		r.Resolver.Claim(dst)
	} else if err := fsx.RenameNoOverwrite(r.Fs, src, dst); err != nil {
		return r.fail(src, dst, OpRename, err, st)
	}

	st.Renamed++
	r.Obs.OnRenamed(src, dst, r.DryRun)
	return domain.RenameOutcome{Dst: dst}
}

func (r *Renamer) fail(src, dst, op string, err error, st *domain.Statistics) domain.RenameOutcome {
	fe := &FileError{Op: op, Path: src, Dst: dst, Err: err}
	st.Errors++
	r.Obs.OnFileError(src, fe)
	return domain.RenameOutcome{Dst: dst, Err: fe}
}
