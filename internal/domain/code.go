package domain

// Code 是从文件内容中提取出的编号，固定形如 RJ-2024-00001（13 个 ASCII 字节）。
//
// 约束：Code 只作为字符串值使用，年份/序号两段不附加任何语义。
type Code string

// CodeLen 是 Code 的固定长度。
const CodeLen = 13

// CodePrefix 是 Code 的字面前缀。
const CodePrefix = "RJ-"

// ParseCode 校验一个独立字符串是否恰好是合法 Code（不做 trim，不做大小写转换）。
func ParseCode(s string) (Code, bool) {
	if len(s) != CodeLen || s[:3] != CodePrefix || s[7] != '-' {
		return "", false
	}
	for i := 3; i < CodeLen; i++ {
		if i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return "", false
		}
	}
	return Code(s), true
}

// FileName 返回该 Code 对应的目标文件名（<code>.txt）。
func (c Code) FileName() string {
	return string(c) + ".txt"
}
