package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusRenamed = "renamed"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

const (
	ReasonNoPattern    = "no RJ pattern found"
	ReasonAlreadyNamed = "already named"
)

const (
	ErrCodeReadFailed      = "read_failed"
	ErrCodeRenameFailed    = "rename_failed"
	ErrCodeTargetConflict  = "target_conflict"
	ErrCodeCrossDevice     = "cross_device"
	ErrCodePathTooLong     = "path_too_long"
	ErrCodeSuffixExhausted = "suffix_exhausted"
	ErrCodeListFailed      = "list_failed"
)

// RunReport 是 --report 输出的稳定结构。
type RunReport struct {
	RunID  string `json:"run_id"`
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary Statistics `json:"summary"`
	// Interrupted 表示遍历未完整结束（目录读取失败或被取消）。
	Interrupted bool `json:"interrupted"`

	Items     []ItemResult `json:"items"`
	DirErrors []DirError   `json:"dir_errors"`
}

// ItemResult 记录单个 .txt 文件的处理结论。
type ItemResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Code   string `json:"code"`
	Status string `json:"status"`

	Reason    string `json:"reason"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// DirError 记录一个无法枚举、因此被整体放弃的子树。
type DirError struct {
	Dir       string `json:"dir"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

// Failed 表示这次运行是否应以非零退出码结束。
func (r RunReport) Failed() bool {
	return r.Interrupted || len(r.DirErrors) > 0 || r.Summary.Errors > 0
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 按 src 稳定排序，dir_errors 按 dir 排序
// 3) nil 切片替换为空切片（JSON 输出 [] 而不是 null）
//
// 注意：Summary 不由 items 推导，而是直接取运行期的 Statistics。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Items == nil {
		r.Items = []ItemResult{}
	}
	if r.DirErrors == nil {
		r.DirErrors = []DirError{}
	}
	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].Src < r.Items[j].Src })
	sort.SliceStable(r.DirErrors, func(i, j int) bool { return r.DirErrors[i].Dir < r.DirErrors[j].Dir })
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
