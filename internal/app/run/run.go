package run

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/John-Robertt/rjren/internal/app/planner"
	"github.com/John-Robertt/rjren/internal/config"
	"github.com/John-Robertt/rjren/internal/domain"
	"github.com/John-Robertt/rjren/internal/scan"
)

// Execute 执行一次 run（dry-run/apply），并返回对外稳定的 RunReport。
// 单个文件或子树的失败只会降级为 item / dir 级错误，不会中止整个 run；
// 只有 ctx 被取消时遍历才会提前结束（Interrupted=true）。
func Execute(ctx context.Context, fsys afero.Fs, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	if obs == nil {
		obs = nopObserver{}
	}
	obs.OnStart(eff)

	root := filepath.Clean(eff.Path)
	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		Path:      root,
		DryRun:    eff.DryRun,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, 64),
	}

	ren := &Renamer{
		Fs:       fsys,
		Resolver: planner.NewResolver(fsys, eff.MaxSuffix),
		MaxPath:  eff.MaxPath,
		DryRun:   eff.DryRun,
		Obs:      obs,
	}
	v := &visitor{
		root: root,
		proc: &Processor{Fs: fsys, Renamer: ren, Obs: obs},
		obs:  obs,
		rr:   &rr,
	}

	w := scan.Walker{
		Fs:      fsys,
		Root:    root,
		Exclude: eff.Exclude,
		MaxPath: eff.MaxPath,
	}
	var st domain.Statistics
	complete := w.Walk(ctx, v, &st)

	rr.Summary = st
	rr.Interrupted = !complete
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()

	obs.OnFinish(rr)
	return rr
}

// visitor 把遍历事件转成 Processor 调用与 report 条目。
type visitor struct {
	root string
	proc *Processor
	obs  Observer
	rr   *domain.RunReport
}

func (v *visitor) VisitFile(path string, st *domain.Statistics) {
	it := v.proc.Process(path, st)
	it.Src = v.rel(it.Src)
	if it.Dst != "" {
		it.Dst = v.rel(it.Dst)
	}
	v.rr.Items = append(v.rr.Items, it)
}

func (v *visitor) FileError(path string, err error) {
	fe := &FileError{Op: OpResolve, Path: path, Err: err}
	v.obs.OnFileError(path, fe)
	v.rr.Items = append(v.rr.Items, domain.ItemResult{
		Src:       v.rel(path),
		Status:    domain.StatusFailed,
		ErrorCode: errorCode(OpResolve, err),
		ErrorMsg:  fe.Error(),
	})
}

func (v *visitor) DirError(dir string, err error) {
	v.obs.OnDirError(dir, err)
	v.rr.DirErrors = append(v.rr.DirErrors, domain.DirError{
		Dir:       v.rel(dir),
		ErrorCode: domain.ErrCodeListFailed,
		ErrorMsg:  err.Error(),
	})
}

// rel 返回相对 root 的 '/' 分隔路径；无法求相对路径时原样返回。
func (v *visitor) rel(p string) string {
	r, err := filepath.Rel(v.root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(r)
}
