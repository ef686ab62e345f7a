package domain

// Decision 连接 FileProcessor 与 FileRenamer：Src 要么得到 Dst，要么得到不改名的 Reason。
type Decision struct {
	Src    string
	Code   Code
	Dst    string
	Reason string
}

// Renames 表示该决定是否会产生一次改名。
func (d Decision) Renames() bool {
	return d.Dst != "" && d.Reason == ""
}

// RenameOutcome 是一次改名尝试的结果：Err 为 nil 时 Dst 是最终路径。
type RenameOutcome struct {
	Dst string
	// Noop 表示文件已是目标名称，未做任何改动。
	Noop bool
	Err  error
}

// Renamed 表示 rename 已成功（或 dry-run 下会成功）。
func (o RenameOutcome) Renamed() bool {
	return o.Err == nil && !o.Noop && o.Dst != ""
}
