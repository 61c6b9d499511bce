// Package adaptive 实现了 PSS 自适应问答：根据用户知识库中的历史模式，
// 选择信息增益最大的下一题，并依据模式相似度预测压力等级。
package adaptive

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"stress-guru-go/internal/model"
)

const (
	LevelLow      = "low stress"
	LevelModerate = "moderate stress"
	LevelHigh     = "high stress"

	// DefaultConfidence 是无法依据模式判断时的置信度。
	DefaultConfidence = 0.5
	// MatchThreshold 是学习时判定“同一模式”的最低匹配比例（不含）。
	MatchThreshold = 0.8
)

// Questions 是 10 道 PSS 题目，下标即题目序号。
var Questions = []string{
	"Have you been upset because of something that happened unexpectedly?",
	"Have you felt unable to control the important things in your life?",
	"Have you felt nervous and stressed?",
	"Have you felt confident about your ability to handle your personal problems?",
	"Have you felt that things were going your way?",
	"Have you found that you could not cope with all the things you had to do?",
	"Have you been able to control irritations in your life?",
	"Have you felt that you were on top of things?",
	"Have you been angered because of things that happened outside of your control?",
	"Have you felt difficulties were piling up so high that you could not overcome them?",
}

// ReverseScored 是反向计分的题目序号。
var ReverseScored = []int{3, 4, 6, 7}

// ResponseValues 是 Likert 选项到分值的映射。
var ResponseValues = map[string]int{
	"never":        0,
	"almost never": 1,
	"sometimes":    2,
	"fairly often": 3,
	"very often":   4,
}

func isReverse(idx int) bool {
	for _, r := range ReverseScored {
		if r == idx {
			return true
		}
	}
	return false
}

// Normalize 统一回答标签的大小写与空白。
func Normalize(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// ValidResponse 判断回答标签是否在词表中。
func ValidResponse(label string) bool {
	_, ok := ResponseValues[Normalize(label)]
	return ok
}

// SeedKnowledgeBase 是新用户注册时写入的初始知识库。
func SeedKnowledgeBase(userID string, now time.Time) *model.KnowledgeBase {
	weights := make(map[string]float64, len(Questions))
	for i := range Questions {
		weights[strconv.Itoa(i)] = 1.0
	}
	return &model.KnowledgeBase{
		UserID: userID,
		Patterns: []model.Pattern{
			{
				Responses:   map[string]string{"0": "very often", "1": "very often", "2": "fairly often", "3": "almost never", "4": "almost never"},
				StressLevel: LevelHigh,
				Frequency:   5,
			},
			{
				Responses:   map[string]string{"0": "never", "1": "almost never", "2": "sometimes", "3": "fairly often", "4": "fairly often"},
				StressLevel: LevelLow,
				Frequency:   5,
			},
		},
		QuestionWeights: weights,
		HistoricalData:  []model.HistoricalRecord{},
		CreatedAt:       now,
		LastUpdated:     now,
	}
}

// DefaultKnowledgeBase 是用户知识库无法读取时使用的内置知识库，比注册时多一个中等压力模式。
func DefaultKnowledgeBase(userID string) *model.KnowledgeBase {
	kb := SeedKnowledgeBase(userID, time.Now())
	kb.Patterns = append(kb.Patterns, model.Pattern{
		Responses:   map[string]string{"0": "sometimes", "1": "sometimes", "2": "sometimes", "3": "sometimes", "4": "sometimes"},
		StressLevel: LevelModerate,
		Frequency:   5,
	})
	return kb
}

// TraditionalScore 计算传统 PSS 总分：反向题记 4-v，再按 10/已答题数 折算到满量表。
func TraditionalScore(responses []model.PSSResponse) float64 {
	if len(responses) == 0 {
		return 0
	}
	total := 0
	for _, r := range responses {
		v := ResponseValues[Normalize(r.Label)]
		if isReverse(r.Index) {
			v = 4 - v
		}
		total += v
	}
	return float64(total) * float64(len(Questions)) / float64(len(responses))
}

// TraditionalLevel 按传统分段判断压力等级：≤13 低，≤26 中，其余高。
func TraditionalLevel(responses []model.PSSResponse) (string, float64) {
	score := TraditionalScore(responses)
	switch {
	case score <= 13:
		return LevelLow, DefaultConfidence
	case score <= 26:
		return LevelModerate, DefaultConfidence
	default:
		return LevelHigh, DefaultConfidence
	}
}

func levelOf(p model.Pattern) string {
	if p.StressLevel == "" {
		return LevelModerate
	}
	return p.StressLevel
}

func entropy(counts map[string]int, total int) float64 {
	if total <= 0 {
		return 0
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := 0.0
	for _, k := range keys {
		if counts[k] <= 0 {
			continue
		}
		p := float64(counts[k]) / float64(total)
		h -= p * math.Log2(p)
	}
	return h
}

// InformationGain 计算在知识库模式上询问第 idx 题带来的信息增益。
func InformationGain(kb *model.KnowledgeBase, idx int) float64 {
	if kb == nil || len(kb.Patterns) == 0 {
		return 0
	}
	key := strconv.Itoa(idx)

	levelCounts := make(map[string]int)
	total := 0
	answers := make(map[string]map[string]int)
	for _, p := range kb.Patterns {
		level := levelOf(p)
		levelCounts[level] += p.Frequency
		total += p.Frequency
		if ans, ok := p.Responses[key]; ok {
			if answers[ans] == nil {
				answers[ans] = make(map[string]int)
			}
			answers[ans][level] += p.Frequency
		}
	}
	current := entropy(levelCounts, total)

	answerTotals := make(map[string]int, len(answers))
	totalAnswers := 0
	for ans, byLevel := range answers {
		for _, n := range byLevel {
			answerTotals[ans] += n
		}
		totalAnswers += answerTotals[ans]
	}
	if totalAnswers == 0 {
		totalAnswers = 1
	}

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conditional := 0.0
	for _, ans := range keys {
		n := answerTotals[ans]
		conditional += float64(n) / float64(totalAnswers) * entropy(answers[ans], n)
	}

	return math.Max(0, current-conditional)
}

func weight(kb *model.KnowledgeBase, idx int) float64 {
	if w, ok := kb.QuestionWeights[strconv.Itoa(idx)]; ok {
		return w
	}
	return 1.0
}

// NextQuestion 返回下一题序号；全部答完时 done 为 true。
// 第一题或知识库为空时取最小的未答序号，其余按加权信息增益取最大，平局取较小序号。
func NextQuestion(kb *model.KnowledgeBase, answered []model.PSSResponse) (idx int, done bool) {
	asked := make(map[int]bool, len(answered))
	for _, r := range answered {
		asked[r.Index] = true
	}
	var remaining []int
	for i := range Questions {
		if !asked[i] {
			remaining = append(remaining, i)
		}
	}
	if len(remaining) == 0 {
		return 0, true
	}
	if len(answered) == 0 || kb == nil || len(kb.Patterns) == 0 {
		return remaining[0], false
	}

	best, bestGain := remaining[0], -1.0
	for _, i := range remaining {
		g := InformationGain(kb, i) * weight(kb, i)
		if g > bestGain {
			best, bestGain = i, g
		}
	}
	return best, false
}

// Predict 依据与已知模式的相似度（按频次加权）预测压力等级，置信度为获胜等级的权重占比。
// 没有任何模式可比较时退回传统分段。
func Predict(kb *model.KnowledgeBase, responses []model.PSSResponse) (string, float64) {
	if len(responses) == 0 {
		return LevelModerate, DefaultConfidence
	}
	current := make(map[string]string, len(responses))
	for _, r := range responses {
		current[strconv.Itoa(r.Index)] = Normalize(r.Label)
	}

	var order []string
	weights := make(map[string]float64)
	if kb != nil {
		for _, p := range kb.Patterns {
			matches, compared := 0, 0
			for k, v := range current {
				if pv, ok := p.Responses[k]; ok {
					compared++
					if Normalize(pv) == v {
						matches++
					}
				}
			}
			if compared == 0 {
				continue
			}
			level := levelOf(p)
			if _, seen := weights[level]; !seen {
				order = append(order, level)
			}
			weights[level] += float64(matches) / float64(compared) * float64(p.Frequency)
		}
	}
	if len(order) == 0 {
		return TraditionalLevel(responses)
	}

	total := 0.0
	best := order[0]
	for _, level := range order {
		total += weights[level]
		if weights[level] > weights[best] {
			best = level
		}
	}
	if total == 0 {
		return TraditionalLevel(responses)
	}
	return best, weights[best] / total
}

// Learn 把一次完成的评估并入知识库：与某个同等级模式在共同题目上的匹配比例超过阈值时
// 该模式频次加一，否则追加新模式。
func Learn(kb *model.KnowledgeBase, responses []model.PSSResponse, level string, score float64, now time.Time) {
	current := make(map[string]string, len(responses))
	for _, r := range responses {
		current[strconv.Itoa(r.Index)] = Normalize(r.Label)
	}

	matched := false
	for i := range kb.Patterns {
		p := &kb.Patterns[i]
		if levelOf(*p) != level {
			continue
		}
		matches, compared := 0, 0
		for k, v := range current {
			if pv, ok := p.Responses[k]; ok {
				compared++
				if Normalize(pv) == v {
					matches++
				}
			}
		}
		if compared > 0 && float64(matches)/float64(compared) > MatchThreshold {
			p.Frequency++
			matched = true
			break
		}
	}
	if !matched {
		kb.Patterns = append(kb.Patterns, model.Pattern{Responses: current, StressLevel: level, Frequency: 1})
	}

	kb.HistoricalData = append(kb.HistoricalData, model.HistoricalRecord{
		Responses:   responses,
		StressLevel: level,
		Score:       score,
		RecordedAt:  now,
	})
	kb.LastUpdated = now
}
