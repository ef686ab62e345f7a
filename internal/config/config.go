package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/rjren/internal/infra/fsx"
)

const (
	// ErrCodeNotFound 表示显式指定的 --config 文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultFileName 是根目录下自动发现的配置文件名。
	DefaultFileName = ".rjren.yaml"
	// DefaultMaxSuffix 是冲突后缀 _1 ... _N 的上限。
	DefaultMaxSuffix = 9999
	// DefaultColor 是颜色模式的默认值。
	DefaultColor = ColorAuto
)

const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// CLIArgs 是 CLI 暴露的入口，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --dry-run=false 必须能覆盖 dry_run: true。
type CLIArgs struct {
	Path       string
	ConfigPath string

	DryRun    bool
	DryRunSet bool

	Color    string
	ColorSet bool

	Report    string
	ReportSet bool

	MaxSuffix    int
	MaxSuffixSet bool

	Exclude []string
}

// FileConfig 对应 .rjren.yaml 的解析结构。
type FileConfig struct {
	DryRun    *bool    `yaml:"dry_run"`
	Color     string   `yaml:"color"`
	Report    string   `yaml:"report"`
	MaxSuffix int      `yaml:"max_suffix"`
	MaxPath   int      `yaml:"max_path"`
	Exclude   []string `yaml:"exclude"`
	LockDir   string   `yaml:"lock_dir"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	Path       string
	ConfigPath string // 实际读取到的配置文件；未读取时为空

	DryRun    bool
	Color     string
	Report    string
	MaxSuffix int
	MaxPath   int
	Exclude   []string
	LockDir   string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s: config file %q not found", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s: config file %q is invalid: %v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: config file %q is invalid", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在且可解析
// 2) 否则尝试 <path>/.rjren.yaml（可选，不存在不报错）
//
// 覆盖优先级（固定）：
// - dry_run/color/report/max_suffix：CLI > config > 默认
// - exclude：config 与 CLI 取并集（config 在前）
// - max_path/lock_dir：仅由 config 控制（CLI 不暴露）
func LoadEffective(fsys afero.Fs, cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}
	absPath := absCleanFrom(cwdAbs, cli.Path)

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		fc, exists, err = readFileConfig(fsys, cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else if absPath != "" {
		cfgPath = filepath.Join(absPath, DefaultFileName)
		fc, exists, err = readFileConfig(fsys, cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}
	if !exists {
		cfgPath = ""
	}

	return merge(absPath, cli, fc, cfgPath)
}

func merge(absPath string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// dry_run：CLI > config > 默认 false
	dryRun := false
	if cli.DryRunSet {
		dryRun = cli.DryRun
	} else if fc.DryRun != nil {
		dryRun = *fc.DryRun
	}

	color := DefaultColor
	if cli.ColorSet {
		color = cli.Color
	} else if strings.TrimSpace(fc.Color) != "" {
		color = fc.Color
	}
	color = strings.ToLower(strings.TrimSpace(color))
	if err := validateColor(color); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	report := strings.TrimSpace(fc.Report)
	if cli.ReportSet {
		report = strings.TrimSpace(cli.Report)
	}
	if report != "" && absPath != "" {
		// 相对路径的 report 以扫描根目录为基准（与配置文件的位置无关）。
		report = absCleanFrom(absPath, report)
	}

	maxSuffix := fc.MaxSuffix
	if cli.MaxSuffixSet {
		maxSuffix = cli.MaxSuffix
	}
	if maxSuffix == 0 {
		maxSuffix = DefaultMaxSuffix
	}
	if maxSuffix < 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("max_suffix must be >= 1, got %d", maxSuffix)}
	}

	maxPath := fc.MaxPath
	if maxPath == 0 {
		maxPath = fsx.DefaultMaxPath
	}
	if maxPath < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("max_path must be >= 0, got %d", maxPath)}
	}

	exclude := make([]string, 0, len(fc.Exclude)+len(cli.Exclude))
	for _, p := range append(append([]string(nil), fc.Exclude...), cli.Exclude...) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("invalid exclude pattern %q", p)}
		}
		exclude = append(exclude, p)
	}

	return EffectiveConfig{
		Path:       absPath,
		ConfigPath: cfgPath,
		DryRun:     dryRun,
		Color:      color,
		Report:     report,
		MaxSuffix:  maxSuffix,
		MaxPath:    maxPath,
		Exclude:    exclude,
		LockDir:    strings.TrimSpace(fc.LockDir),
	}, nil
}

func validateColor(c string) error {
	switch c {
	case ColorAuto, ColorAlways, ColorNever:
		return nil
	default:
		return fmt.Errorf("color must be one of auto, always, never; got %q", c)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
// 未知字段按错误处理，避免拼写错误的键被静默忽略。
func readFileConfig(fsys afero.Fs, path string) (fc FileConfig, exists bool, err error) {
	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
