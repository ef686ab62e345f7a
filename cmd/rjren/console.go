package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/John-Robertt/rjren/internal/app/run"
	"github.com/John-Robertt/rjren/internal/config"
	"github.com/John-Robertt/rjren/internal/domain"
)

var _ run.Observer = (*console)(nil)

// colorScheme 定义控制台输出的固定配色：
// 绿色 = 改名成功，黄色 = 跳过/警告，红色 = 错误，青色 = 标题与标签。
type colorScheme struct {
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	label   *color.Color
}

func newColorScheme(enabled bool) *colorScheme {
	s := &colorScheme{
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		label:   color.New(color.FgCyan),
	}
	// 每个 Color 单独开关，不改动 fatih/color 的全局 NoColor。
	for _, c := range []*color.Color{s.success, s.warn, s.fail, s.label} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// console 把 run 事件渲染为控制台文本。
//
// 约束：
// - 正常进度与汇总写 stdout，所有 "Error:" 诊断与最终警告写 stderr
// - 颜色只做装饰：去掉颜色后文本与无色模式逐字节一致
type console struct {
	out    io.Writer
	errOut io.Writer
	outC   *colorScheme
	errC   *colorScheme
}

func newConsole(stdout, stderr io.Writer, mode string) *console {
	return &console{
		out:    stdout,
		errOut: stderr,
		outC:   newColorScheme(useColor(mode, stdout)),
		errC:   newColorScheme(useColor(mode, stderr)),
	}
}

// useColor 决定某个输出流是否着色：auto 时要求是终端且未设置 NO_COLOR。
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *console) OnStart(eff config.EffectiveConfig) {
	fmt.Fprintln(c.out, c.outC.label.Sprint("File Renaming Utility"))
	fmt.Fprintln(c.out, c.outC.label.Sprint("====================="))
	fmt.Fprintf(c.out, "Processing directory: %s\n", eff.Path)
	if eff.DryRun {
		fmt.Fprintln(c.out, c.outC.warn.Sprint("Dry run: no file will be renamed"))
	}
	fmt.Fprintln(c.out)
}

func (c *console) OnRenamed(src, dst string, dryRun bool) {
	verb := "Renamed:"
	if dryRun {
		verb = "Would rename:"
	}
	fmt.Fprintf(c.out, "%s %s -> %s\n", c.outC.success.Sprint(verb), filepath.Base(src), filepath.Base(dst))
}

func (c *console) OnSkipped(path, reason string) {
	fmt.Fprintf(c.out, "%s %s (%s)\n", c.outC.warn.Sprint("Skipped:"), filepath.Base(path), reason)
}

func (c *console) OnFileError(path string, err error) {
	fmt.Fprintf(c.errOut, "%s %v\n", c.errC.fail.Sprint("Error:"), err)
}

func (c *console) OnDirError(dir string, err error) {
	fmt.Fprintf(c.errOut, "%s Cannot open directory '%s': %v\n", c.errC.fail.Sprint("Error:"), dir, err)
}

func (c *console) OnFinish(rr domain.RunReport) {
	s := rr.Summary
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.outC.label.Sprint("Processing Complete"))
	fmt.Fprintln(c.out, c.outC.label.Sprint("==================="))
	fmt.Fprintf(c.out, "Total .txt files found: %d\n", s.Examined)
	fmt.Fprintf(c.out, "Files renamed:          %s\n", c.outC.success.Sprint(s.Renamed))
	fmt.Fprintf(c.out, "Files skipped:          %s\n", c.outC.warn.Sprint(s.Skipped))
	errs := fmt.Sprint(s.Errors)
	if s.Errors > 0 {
		errs = c.outC.fail.Sprint(s.Errors)
	}
	fmt.Fprintf(c.out, "Errors encountered:     %s\n", errs)

	switch {
	case rr.Interrupted || len(rr.DirErrors) > 0:
		fmt.Fprintf(c.errOut, "\n%s\n", c.errC.warn.Sprint("Warning: Directory processing encountered errors"))
	case s.Errors > 0:
		fmt.Fprintf(c.errOut, "\n%s\n", c.errC.warn.Sprint("Warning: Some files could not be processed"))
	}
}
