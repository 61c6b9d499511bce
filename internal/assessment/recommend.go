package assessment

import "strings"

// Recommendations 保存活动推荐表。
type Recommendations struct {
	// ByCategory: 类别 -> 严重程度标签 -> 活动列表
	ByCategory map[string]map[string][]string `json:"by_category"`
	// ByStressLevel: PSS 压力等级 -> 活动列表
	ByStressLevel map[string][]string `json:"by_stress_level"`
	Default       []string            `json:"default"`
}

// ForSeverity 查询 (类别, 严重程度) 对应的活动，缺失时返回默认列表。
func (r Recommendations) ForSeverity(category, label string) []string {
	if acts, ok := r.ByCategory[category][label]; ok && len(acts) > 0 {
		return clone(acts)
	}
	return r.fallback()
}

// ForStressLevel 查询 PSS 压力等级对应的活动，标签大小写不敏感。
func (r Recommendations) ForStressLevel(level string) []string {
	key := normalize(level)
	for k, acts := range r.ByStressLevel {
		if normalize(k) == key && len(acts) > 0 {
			return clone(acts)
		}
	}
	return r.fallback()
}

func (r Recommendations) fallback() []string {
	if len(r.Default) > 0 {
		return clone(r.Default)
	}
	return clone(defaultActivities)
}

var defaultActivities = []string{
	"Take a short walk outside",
	"Try five minutes of slow, deep breathing",
	"Talk to someone you trust about how you feel",
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
