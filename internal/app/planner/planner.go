package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/rjren/internal/infra/fsx"
)

// ErrSuffixExhausted 表示 _1 ... _MaxSuffix 全部被占用。
var ErrSuffixExhausted = errors.New("no free name within suffix bound")

// DefaultMaxSuffix 是未配置时的后缀上限。
const DefaultMaxSuffix = 9999

// Resolver 为期望路径分配一个当前不存在的路径（确定性的 _N 后缀方案）。
//
// 约束：
// - 只做探测，不做任何写入
// - 任何条目（文件/目录/符号链接）都视为占用
// - claimed/vacated 只在 dry-run 下使用：模拟“已分配但未落盘”的目标与“已被移走”的源，
//   让模拟结果与真实运行一致
type Resolver struct {
	Fs        afero.Fs
	MaxSuffix int

	claimed map[string]struct{}
	vacated map[string]struct{}
}

func NewResolver(fsys afero.Fs, maxSuffix int) *Resolver {
	if maxSuffix <= 0 {
		maxSuffix = DefaultMaxSuffix
	}
	return &Resolver{Fs: fsys, MaxSuffix: maxSuffix}
}

// Resolve 返回一个当前不存在的路径：
//  1. desired 空闲：原样返回
//  2. 否则依次尝试 <stem>_1<ext> ... <stem>_<MaxSuffix><ext>
//  3. 全部占用：返回最后一个候选，同时返回 ErrSuffixExhausted（调用方必须把它当失败处理）
func (r *Resolver) Resolve(desired string) (string, error) {
	return r.ResolveFor(desired, "")
}

// ResolveFor 与 Resolve 相同，但 self（源文件自身）所在的候选视为可用：
// 文件已经叫 desired 或某个 _N 变体时直接返回 self，调用方据此判定为无需改名，
// 避免重复运行时 X.txt -> X_1.txt -> X.txt 来回翻转。
func (r *Resolver) ResolveFor(desired, self string) (string, error) {
	if self != "" {
		self = filepath.Clean(self)
	}
	free, err := r.freeFor(desired, self)
	if err != nil {
		return "", err
	}
	if free {
		return desired, nil
	}

	dir := filepath.Dir(desired)
	stem, ext := SplitExt(filepath.Base(desired))

	cand := desired
	for n := 1; n <= r.MaxSuffix; n++ {
		cand = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		free, err := r.freeFor(cand, self)
		if err != nil {
			return "", err
		}
		if free {
			return cand, nil
		}
	}
	return cand, fmt.Errorf("%w: %s (tried _1.._%d)", ErrSuffixExhausted, desired, r.MaxSuffix)
}

// Claim 把 path 记为本次运行已占用（dry-run 下代替真实 rename 的目标）。
func (r *Resolver) Claim(path string) {
	path = filepath.Clean(path)
	if r.claimed == nil {
		r.claimed = make(map[string]struct{})
	}
	delete(r.vacated, path)
	r.claimed[path] = struct{}{}
}

// Vacate 把 path 记为已空出（dry-run 下代替真实 rename 的源）。
func (r *Resolver) Vacate(path string) {
	path = filepath.Clean(path)
	if r.vacated == nil {
		r.vacated = make(map[string]struct{})
	}
	delete(r.claimed, path)
	r.vacated[path] = struct{}{}
}

func (r *Resolver) freeFor(path, self string) (bool, error) {
	path = filepath.Clean(path)
	if self != "" && path == self {
		return true, nil
	}
	if _, ok := r.claimed[path]; ok {
		return false, nil
	}
	if _, ok := r.vacated[path]; ok {
		return true, nil
	}
	exists, err := fsx.Exists(r.Fs, path)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// SplitExt 把文件名拆成 stem 与扩展名：扩展名从最后一个 '.' 开始（含 '.'）；没有 '.' 时为空。
//
// 注意：与 filepath.Ext 一致，".hidden" 的 stem 为空、ext 为 ".hidden"。
func SplitExt(name string) (stem, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i:]
}
