package assessment

// Response 是一条已分类的回答记录，创建后不再修改。
// DASS 方案填写 Category 与 Score；PSS 方案填写 Label，Score 为其 Likert 分值。
type Response struct {
	Index    int    `json:"index"`
	Category string `json:"category,omitempty"`
	Score    int    `json:"score"`
	Label    string `json:"label,omitempty"`
}

// Aggregate 计算每个类别的加权总分：total[c] = Σ score × weight。
// categories 中列出的类别即使没有回答也会以 0 出现在结果里。
func Aggregate(responses []Response, weight int, categories ...string) map[string]int {
	totals := make(map[string]int, len(categories))
	for _, c := range categories {
		totals[c] = 0
	}
	for _, r := range responses {
		totals[r.Category] += r.Score * weight
	}
	return totals
}
