package run

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/rjren/internal/config"
	"github.com/John-Robertt/rjren/internal/domain"
)

const testRoot = "/data"

// openFailFs 对 failPath 的 Open 返回权限错误，模拟不可读文件。
type openFailFs struct {
	afero.Fs
	failPath string
}

func (f openFailFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == f.failPath {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return f.Fs.Open(name)
}

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(testRoot, 0o755))
	for rel, content := range files {
		p := filepath.Join(testRoot, filepath.FromSlash(rel))
		require.NoError(t, fsys.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, afero.WriteFile(fsys, p, []byte(content), 0o644))
	}
	return fsys
}

func effFor(dryRun bool) config.EffectiveConfig {
	return config.EffectiveConfig{
		Path:      testRoot,
		DryRun:    dryRun,
		MaxSuffix: 9999,
		MaxPath:   260,
	}
}

func exists(t *testing.T, fsys afero.Fs, rel string) bool {
	t.Helper()
	ok, err := afero.Exists(fsys, filepath.Join(testRoot, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return ok
}

func assertPartition(t *testing.T, st domain.Statistics) {
	t.Helper()
	assert.Equal(t, st.Examined, st.Settled(), "统计不满足 examined = renamed + skipped + errors：%+v", st)
}

func TestExecute_RenamesByEmbeddedCode(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"notes.txt": "Ref: RJ-2022-54321 end",
		"plain.txt": "no code here",
	})

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	assert.Equal(t, domain.Statistics{Examined: 2, Renamed: 1, Skipped: 1}, rr.Summary)
	assert.False(t, rr.Interrupted)
	assert.False(t, rr.Failed())
	assert.NotEmpty(t, rr.RunID)
	assert.True(t, exists(t, fsys, "RJ-2022-54321.txt"))
	assert.False(t, exists(t, fsys, "notes.txt"))
	assert.True(t, exists(t, fsys, "plain.txt"))

	require.Len(t, rr.Items, 2)
	assert.Equal(t, domain.ItemResult{
		Src:    "notes.txt",
		Dst:    "RJ-2022-54321.txt",
		Code:   "RJ-2022-54321",
		Status: domain.StatusRenamed,
	}, rr.Items[0])
	assert.Equal(t, "plain.txt", rr.Items[1].Src)
	assert.Equal(t, domain.StatusSkipped, rr.Items[1].Status)
	assert.Equal(t, domain.ReasonNoPattern, rr.Items[1].Reason)
}

func TestExecute_ContentIsPreserved(t *testing.T) {
	const body = "header\nRJ-2019-00042\nfooter"
	fsys := newFs(t, map[string]string{"a.txt": body})

	Execute(context.Background(), fsys, effFor(false), nil)

	b, err := afero.ReadFile(fsys, filepath.Join(testRoot, "RJ-2019-00042.txt"))
	require.NoError(t, err)
	assert.Equal(t, body, string(b))
}

func TestExecute_CollisionGetsSuffix(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"a.txt": "RJ-2022-00001",
		"b.txt": "RJ-2022-00001",
		"c.txt": "RJ-2022-00001",
	})

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	assert.Equal(t, domain.Statistics{Examined: 3, Renamed: 3}, rr.Summary)
	for _, name := range []string{"RJ-2022-00001.txt", "RJ-2022-00001_1.txt", "RJ-2022-00001_2.txt"} {
		assert.True(t, exists(t, fsys, name), "期望存在 %s", name)
	}
	assert.Equal(t, "RJ-2022-00001.txt", rr.Items[0].Dst)
	assert.Equal(t, "RJ-2022-00001_1.txt", rr.Items[1].Dst)
	assert.Equal(t, "RJ-2022-00001_2.txt", rr.Items[2].Dst)
}

func TestExecute_CollisionWithDirectoryIsOccupied(t *testing.T) {
	fsys := newFs(t, map[string]string{"a.txt": "RJ-2022-00001"})
	require.NoError(t, fsys.MkdirAll(filepath.Join(testRoot, "RJ-2022-00001.txt"), 0o755))

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	assert.Equal(t, 1, rr.Summary.Renamed)
	assert.True(t, exists(t, fsys, "RJ-2022-00001_1.txt"))
}

func TestExecute_AlreadyNamedIsNoop(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"RJ-2022-00001.txt": "RJ-2022-00001",
		"a.txt":             "RJ-2022-00001",
	})

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	// 大写字母排在小写之前：RJ-...txt 先被访问并判定为已命名；a.txt 只能拿到 _1。
	assert.Equal(t, domain.Statistics{Examined: 2, Renamed: 1, Skipped: 1}, rr.Summary)
	assert.Equal(t, domain.ReasonAlreadyNamed, rr.Items[0].Reason)
	assert.True(t, exists(t, fsys, "RJ-2022-00001_1.txt"))
	assertPartition(t, rr.Summary)
}

func TestExecute_SecondRunChangesNothing(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"a.txt": "RJ-2022-00001",
		"b.txt": "RJ-2022-00001",
	})

	first := Execute(context.Background(), fsys, effFor(false), nil)
	require.Equal(t, 2, first.Summary.Renamed)

	second := Execute(context.Background(), fsys, effFor(false), nil)
	assert.Equal(t, domain.Statistics{Examined: 2, Skipped: 2}, second.Summary)
	assert.True(t, exists(t, fsys, "RJ-2022-00001.txt"))
	assert.True(t, exists(t, fsys, "RJ-2022-00001_1.txt"))
	assert.False(t, exists(t, fsys, "RJ-2022-00001_2.txt"))
}

func TestExecute_DryRun_NoWritesButSameDecisions(t *testing.T) {
	files := map[string]string{
		"a.txt":     "RJ-2022-00001",
		"b.txt":     "RJ-2022-00001",
		"sub/c.txt": "x RJ-2020-12345 y",
	}
	dry := newFs(t, files)
	applied := newFs(t, files)

	dr := Execute(context.Background(), dry, effFor(true), nil)
	ar := Execute(context.Background(), applied, effFor(false), nil)

	assert.True(t, dr.DryRun)
	for rel := range files {
		assert.True(t, exists(t, dry, rel), "dry-run 不应移动 %s", rel)
	}
	assert.False(t, exists(t, dry, "RJ-2022-00001.txt"))

	assert.Equal(t, ar.Summary, dr.Summary)
	require.Len(t, dr.Items, len(ar.Items))
	for i := range ar.Items {
		assert.Equal(t, ar.Items[i].Dst, dr.Items[i].Dst)
		assert.Equal(t, ar.Items[i].Status, dr.Items[i].Status)
	}
	assert.Equal(t, "sub/RJ-2020-12345.txt", dr.Items[2].Dst)
}

func TestExecute_UnreadableFileCountsAsError(t *testing.T) {
	base := newFs(t, map[string]string{
		"bad.txt":  "RJ-2022-00001",
		"good.txt": "RJ-2022-00002",
	})
	fsys := openFailFs{Fs: base, failPath: filepath.Join(testRoot, "bad.txt")}

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	assert.Equal(t, domain.Statistics{Examined: 2, Renamed: 1, Errors: 1}, rr.Summary)
	assert.True(t, rr.Failed())
	assert.False(t, rr.Interrupted)
	require.Len(t, rr.Items, 2)
	assert.Equal(t, domain.StatusFailed, rr.Items[0].Status)
	assert.Equal(t, domain.ErrCodeReadFailed, rr.Items[0].ErrorCode)
	assert.Contains(t, rr.Items[0].ErrorMsg, "Cannot read file")
	assert.True(t, exists(t, base, "bad.txt"))
}

func TestExecute_UnlistableDirIsAbandoned(t *testing.T) {
	base := newFs(t, map[string]string{
		"locked/x.txt": "RJ-2022-00001",
		"open/y.txt":   "RJ-2022-00002",
	})
	fsys := openFailFs{Fs: base, failPath: filepath.Join(testRoot, "locked")}

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	assert.True(t, rr.Interrupted)
	assert.True(t, rr.Failed())
	require.Len(t, rr.DirErrors, 1)
	assert.Equal(t, "locked", rr.DirErrors[0].Dir)
	assert.Equal(t, domain.ErrCodeListFailed, rr.DirErrors[0].ErrorCode)
	assert.Equal(t, domain.Statistics{Examined: 1, Renamed: 1}, rr.Summary)
	assert.True(t, exists(t, base, "open/RJ-2022-00002.txt"))
}

func TestExecute_NestedStaysInItsDirectory(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"a/b/deep.txt": "RJ-2021-11111",
		"a/other.TXT":  "RJ-2021-22222",
		"a/skip.md":    "RJ-2021-33333",
	})

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	assert.Equal(t, domain.Statistics{Examined: 2, Renamed: 2}, rr.Summary)
	assert.True(t, exists(t, fsys, "a/b/RJ-2021-11111.txt"))
	assert.True(t, exists(t, fsys, "a/RJ-2021-22222.txt"))
	assert.True(t, exists(t, fsys, "a/skip.md"))
}

func TestExecute_ExcludePatterns(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"keep/a.txt":    "RJ-2022-00001",
		"archive/b.txt": "RJ-2022-00002",
	})
	e := effFor(false)
	e.Exclude = []string{"archive/**", "archive"}

	rr := Execute(context.Background(), fsys, e, nil)

	assert.Equal(t, domain.Statistics{Examined: 1, Renamed: 1}, rr.Summary)
	assert.True(t, exists(t, fsys, "archive/b.txt"))
}

func TestExecute_CanceledContextIsInterrupted(t *testing.T) {
	fsys := newFs(t, map[string]string{"a.txt": "RJ-2022-00001"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := Execute(ctx, fsys, effFor(false), nil)

	assert.True(t, rr.Interrupted)
	assert.Equal(t, 0, rr.Summary.Examined)
	assert.True(t, exists(t, fsys, "a.txt"))
}

func TestExecute_PartitionHoldsForMixedTree(t *testing.T) {
	base := newFs(t, map[string]string{
		"1.txt":     "RJ-2022-00001",
		"2.txt":     "RJ-2022-00001",
		"3.txt":     "nothing",
		"4.txt":     "XRJ-2022-00009",
		"5.txt":     "RJ-2022-000011",
		"d/6.txt":   "RJ-2022-00001",
		"d/7.txt":   "unreadable",
		"d/e/8.txt": "RJ-1999-99999",
	})
	fsys := openFailFs{Fs: base, failPath: filepath.Join(testRoot, "d", "7.txt")}

	rr := Execute(context.Background(), fsys, effFor(false), nil)

	assertPartition(t, rr.Summary)
	assert.Equal(t, 8, rr.Summary.Examined)
	assert.Equal(t, 1, rr.Summary.Errors)
	assert.Equal(t, 2, rr.Summary.Skipped)
	assert.Equal(t, 5, rr.Summary.Renamed)
	assert.Len(t, rr.Items, 8)
	// 左边界不做检查：XRJ-2022-00009 仍然命中；右边界紧跟字母数字则不算。
	assert.True(t, exists(t, base, "RJ-2022-00009.txt"))
	assert.True(t, exists(t, base, "5.txt"))
	assert.True(t, exists(t, base, "d/RJ-2022-00001.txt"))
}
