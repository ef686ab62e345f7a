package code

import (
	"bytes"

	"github.com/John-Robertt/rjren/internal/domain"
)

var prefix = []byte(domain.CodePrefix)

// Extract 从文件内容中提取第一个合法 Code（按起始偏移升序）。
//
// 规则：
// - 只认大写字面前缀 "RJ-"，按字节比较，不做编码探测
// - 左边界不检查（"XRJ-2024-00001" 仍然命中）
// - 右边界必须检查：紧跟窗口的字节若是 [0-9A-Za-z] 则该候选作废
func Extract(content []byte) (domain.Code, bool) {
	for _, off := range Locate(content) {
		if Valid(content, off) {
			return domain.Code(content[off : off+domain.CodeLen]), true
		}
	}
	return "", false
}

// Locate 返回 content 中每一个 "RJ-" 出现的偏移（升序，允许重叠搜索）。
// 它只负责定位候选，不做语法校验。
func Locate(content []byte) []int {
	var offs []int
	for from := 0; from < len(content); {
		i := bytes.Index(content[from:], prefix)
		if i < 0 {
			break
		}
		offs = append(offs, from+i)
		from += i + 1
	}
	return offs
}

// Valid 校验从 off 开始的 13 字节窗口是否满足语法与右边界规则。
// 窗口越过 content 末尾时返回 false。
func Valid(content []byte, off int) bool {
	end := off + domain.CodeLen
	if off < 0 || end > len(content) {
		return false
	}
	if _, ok := domain.ParseCode(string(content[off:end])); !ok {
		return false
	}
	// 防止截取更长 token 的前缀，例如 RJ-2024-123456。
	if end < len(content) && isAlnum(content[end]) {
		return false
	}
	return true
}

func isAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
