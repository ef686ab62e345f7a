package domain

// Statistics 是一次运行的计数器集合。
//
// 不变量：每个被检查的文件（Examined）最终恰好落入 Renamed/Skipped/Errors 之一。
// Statistics 由运行方持有并以指针逐层传递，不存在包级可变状态。
type Statistics struct {
	Examined int `json:"examined"`
	Renamed  int `json:"renamed"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// Settled 返回已经有结论的文件数。
func (s Statistics) Settled() int {
	return s.Renamed + s.Skipped + s.Errors
}
