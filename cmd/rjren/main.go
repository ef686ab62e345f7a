package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/rjren/internal/app/run"
	"github.com/John-Robertt/rjren/internal/config"
	"github.com/John-Robertt/rjren/internal/domain"
	"github.com/John-Robertt/rjren/internal/infra/fsx"
	"github.com/John-Robertt/rjren/internal/infra/lock"
	"github.com/John-Robertt/rjren/internal/scan"
)

// Version 在构建时通过 -ldflags 注入。
var Version = "dev"

const (
	exitOK         = 0
	exitUsage      = 1
	exitBadPath    = 2
	exitIncomplete = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newCLI(), os.Args[1:])
	stop()
	os.Exit(code)
}

// cli 收拢了命令运行所需的外部依赖，测试时替换为内存文件系统与 buffer。
type cli struct {
	fs      afero.Fs
	stdout  io.Writer
	stderr  io.Writer
	getwd   func() (string, error)
	lockDir string // 非空时覆盖配置中的 lock_dir
}

func newCLI() *cli {
	return &cli{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		getwd:  os.Getwd,
	}
}

// exitError 携带退出码；消息已经写到 stderr 时 err 可以为 nil。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func execute(ctx context.Context, c *cli, args []string) int {
	cmd := newRootCommand(c)
	cmd.SetArgs(args)
	cmd.SetContext(ctx)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(c.stderr, "Error: %v\n", err)
	return exitUsage
}

type flags struct {
	configPath string
	dryRun     bool
	color      string
	report     string
	exclude    []string
	maxSuffix  int
}

func newRootCommand(c *cli) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "rjren [flags] <directory>",
		Short: "Rename .txt files after the RJ-YYYY-NNNNN code found in their content",
		Long: `rjren recursively processes .txt files in the given directory,
extracts the first RJ-YYYY-NNNNN code from each file's content and renames
the file to <code>.txt in place. Name collisions get a _1, _2, ... suffix.

Examples:
  rjren ./testing
  rjren --dry-run --report report.json /data/docs`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprintln(c.stderr, "Error: Invalid number of arguments")
				fmt.Fprint(c.stderr, cmd.UsageString())
				return &exitError{code: exitUsage}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, args[0], f)
		},
	}
	cmd.SetOut(c.stdout)
	cmd.SetErr(c.stderr)
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		fmt.Fprint(c.stderr, cmd.UsageString())
		return &exitError{code: exitUsage}
	})

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML config file (default <directory>/"+config.DefaultFileName+" if present)")
	fl.BoolVar(&f.dryRun, "dry-run", false, "resolve and report renames without touching any file")
	fl.StringVar(&f.color, "color", config.DefaultColor, "colorize output: auto|always|never")
	fl.StringVar(&f.report, "report", "", "write a JSON run report to this path")
	fl.StringArrayVar(&f.exclude, "exclude", nil, "skip paths matching this glob (relative to <directory>, repeatable)")
	fl.IntVar(&f.maxSuffix, "max-suffix", config.DefaultMaxSuffix, "highest _N suffix tried on name collisions")

	return cmd
}

func (c *cli) run(cmd *cobra.Command, dir string, f flags) error {
	ctx := cmd.Context()
	fl := cmd.Flags()

	cwd, err := c.getwd()
	if err != nil {
		return &exitError{code: exitUsage, err: fmt.Errorf("cannot determine working directory: %w", err)}
	}
	root := dir
	if !filepath.IsAbs(root) {
		root = filepath.Join(cwd, root)
	}
	root = filepath.Clean(root)

	// 路径校验先于配置加载：<directory>/.rjren.yaml 的发现依赖目录存在。
	isDir, err := scan.IsDir(c.fs, root)
	if err != nil {
		return &exitError{code: exitBadPath, err: fmt.Errorf("Directory '%s' does not exist or cannot be accessed: %w", dir, err)}
	}
	if !isDir {
		return &exitError{code: exitBadPath, err: fmt.Errorf("'%s' is not a directory", dir)}
	}

	eff, err := config.LoadEffective(c.fs, cwd, config.CLIArgs{
		Path:         dir,
		ConfigPath:   f.configPath,
		DryRun:       f.dryRun,
		DryRunSet:    fl.Changed("dry-run"),
		Color:        f.color,
		ColorSet:     fl.Changed("color"),
		Report:       f.report,
		ReportSet:    fl.Changed("report"),
		MaxSuffix:    f.maxSuffix,
		MaxSuffixSet: fl.Changed("max-suffix"),
		Exclude:      f.exclude,
	})
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	if c.lockDir != "" {
		eff.LockDir = c.lockDir
	}

	l, err := lock.Acquire(eff.LockDir, eff.Path)
	if err != nil {
		return &exitError{code: exitIncomplete, err: fmt.Errorf("Cannot lock '%s': %w", eff.Path, err)}
	}
	defer l.Release()

	con := newConsole(c.stdout, c.stderr, eff.Color)
	rr := run.Execute(ctx, c.fs, eff, con)

	if eff.Report != "" {
		if err := writeReport(c.fs, eff.Report, rr); err != nil {
			return &exitError{code: exitIncomplete, err: fmt.Errorf("Cannot write report '%s': %w", eff.Report, err)}
		}
	}

	if rr.Failed() {
		return &exitError{code: exitIncomplete}
	}
	return nil
}

func writeReport(fsys afero.Fs, path string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(fsys, filepath.Dir(path), filepath.Base(path), b)
}
