package run

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/rjren/internal/config"
	"github.com/John-Robertt/rjren/internal/domain"
)

type recordObserver struct {
	startCalls  int
	finishCalls int
	renamed     []string
	skipped     []string
	fileErrs    []error
	dirErrs     []string
	dryRuns     []bool
	last        domain.RunReport
}

func (o *recordObserver) OnStart(config.EffectiveConfig) { o.startCalls++ }

func (o *recordObserver) OnRenamed(src, dst string, dryRun bool) {
	o.renamed = append(o.renamed, filepath.Base(src)+" -> "+filepath.Base(dst))
	o.dryRuns = append(o.dryRuns, dryRun)
}

func (o *recordObserver) OnSkipped(path, reason string) {
	o.skipped = append(o.skipped, filepath.Base(path)+" ("+reason+")")
}

func (o *recordObserver) OnFileError(path string, err error) { o.fileErrs = append(o.fileErrs, err) }

func (o *recordObserver) OnDirError(dir string, err error) { o.dirErrs = append(o.dirErrs, dir) }

func (o *recordObserver) OnFinish(rr domain.RunReport) {
	o.finishCalls++
	o.last = rr
}

func TestExecute_ObserverSeesEveryDecision(t *testing.T) {
	base := newFs(t, map[string]string{
		"a.txt":    "RJ-2022-00001",
		"b.txt":    "nothing",
		"bad.txt":  "RJ-2022-00003",
		"sub/.txt": "RJ-2022-00004",
	})
	fsys := openFailFs{Fs: base, failPath: filepath.Join(testRoot, "bad.txt")}
	obs := &recordObserver{}

	rr := Execute(context.Background(), fsys, effFor(false), obs)

	assert.Equal(t, 1, obs.startCalls)
	assert.Equal(t, 1, obs.finishCalls)
	assert.Equal(t, rr.Summary, obs.last.Summary)
	assert.Equal(t, []string{"a.txt -> RJ-2022-00001.txt"}, obs.renamed)
	assert.Equal(t, []bool{false}, obs.dryRuns)
	assert.Equal(t, []string{"b.txt (" + domain.ReasonNoPattern + ")"}, obs.skipped)
	require.Len(t, obs.fileErrs, 1)

	var fe *FileError
	require.True(t, errors.As(obs.fileErrs[0], &fe))
	assert.Equal(t, OpRead, fe.Op)
	assert.Empty(t, obs.dirErrs)
	// ".txt" 没有主名，不算 .txt 文件。
	assert.Equal(t, 3, rr.Summary.Examined)
}

func TestExecute_ObserverDryRunFlag(t *testing.T) {
	fsys := newFs(t, map[string]string{"a.txt": "RJ-2022-00001"})
	obs := &recordObserver{}

	Execute(context.Background(), fsys, effFor(true), obs)

	assert.Equal(t, []bool{true}, obs.dryRuns)
}
