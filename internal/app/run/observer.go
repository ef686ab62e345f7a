package run

import (
	"github.com/John-Robertt/rjren/internal/config"
	"github.com/John-Robertt/rjren/internal/domain"
)

// Observer 用于把“逐文件结论/目录错误/最终摘要”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出；展示形式（颜色、stdout/stderr 分流）由 CLI 决定
// - 事件全部来自同一个 goroutine，按处理顺序依次到达
type Observer interface {
	// OnStart 在 Execute 开始时调用（遍历前）。
	OnStart(eff config.EffectiveConfig)
	// OnRenamed 在一次改名成功后调用；dry-run 下表示“将会改名”。
	OnRenamed(src, dst string, dryRun bool)
	// OnSkipped 在文件未被改名且不算错误时调用（reason 见 domain.Reason*）。
	OnSkipped(path, reason string)
	// OnFileError 在单个文件失败时调用，err 携带 OS 层错误文本。
	OnFileError(path string, err error)
	// OnDirError 在某个目录无法枚举、其子树被放弃时调用。
	OnDirError(dir string, err error)
	// OnFinish 在报告定稿后调用。
	OnFinish(rr domain.RunReport)
}

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig) {}
func (nopObserver) OnRenamed(string, string, bool) {}
func (nopObserver) OnSkipped(string, string) {}
func (nopObserver) OnFileError(string, error) {}
func (nopObserver) OnDirError(string, error) {}
func (nopObserver) OnFinish(domain.RunReport) {}
