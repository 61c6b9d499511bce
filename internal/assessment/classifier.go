package assessment

import (
	"strings"
	"unicode"
)

// Tier 是关键词表中的一个档位，命中任一关键词即得到该档位的分数。
type Tier struct {
	Score    int      `json:"score"`
	Keywords []string `json:"keywords"`
}

// KeywordTable 按扫描顺序排列的档位表。
type KeywordTable []Tier

// Classify 将自由文本映射为 0-3 的序数分。
// 按表顺序做子串匹配，第一个命中的档位胜出；同时包含多个档位关键词的输入
// （例如 "not often"）落在先被扫描到的档位上。
func (t KeywordTable) Classify(text string) (int, error) {
	lower := strings.ToLower(text)
	for _, tier := range t {
		for _, kw := range tier.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return tier.Score, nil
			}
		}
	}
	return 0, ErrUnrecognized
}

// LikertOption 是 PSS 的一个固定选项。
type LikertOption struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Vocabulary 是 PSS 的 5 级 Likert 词表。
type Vocabulary []LikertOption

// Classify 对输入做大小写与空白归一化后精确匹配，不做部分匹配。
func (v Vocabulary) Classify(text string) (LikertOption, error) {
	norm := normalize(text)
	for _, opt := range v {
		if normalize(opt.Label) == norm {
			return opt, nil
		}
	}
	return LikertOption{}, ErrInvalidChoice
}

// Labels 返回所有选项标签，保持配置顺序。
func (v Vocabulary) Labels() []string {
	labels := make([]string, 0, len(v))
	for _, opt := range v {
		labels = append(labels, opt.Label)
	}
	return labels
}

// Value 按标签查分值。
func (v Vocabulary) Value(label string) (int, bool) {
	opt, err := v.Classify(label)
	if err != nil {
		return 0, false
	}
	return opt.Value, true
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Intent 是是/否类问题的用户意图。
type Intent int

const (
	IntentUnknown Intent = iota
	IntentYes
	IntentNo
)

var (
	yesWords = map[string]bool{"yes": true, "y": true, "yeah": true, "yep": true, "yup": true, "absolutely": true}
	noWords  = map[string]bool{"no": true, "n": true, "nope": true, "nah": true}
)

// ClassifyIntent 按整词判断是/否。两者同时出现时视为无法识别。
func ClassifyIntent(text string) Intent {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	var yes, no bool
	for _, w := range words {
		if yesWords[w] {
			yes = true
		}
		if noWords[w] {
			no = true
		}
	}
	switch {
	case yes && !no:
		return IntentYes
	case no && !yes:
		return IntentNo
	default:
		return IntentUnknown
	}
}

// 问候语情绪分类
const (
	SentimentGood    = "good"
	SentimentOkay    = "okay"
	SentimentBad     = "bad"
	SentimentNeutral = "neutral"
)

var sentimentTable = []struct {
	sentiment string
	keywords  []string
}{
	{SentimentGood, []string{"good", "great", "wonderful"}},
	{SentimentOkay, []string{"okay", "fine"}},
	{SentimentBad, []string{"bad", "terrible", "not"}},
}

// ClassifySentiment 对开场回复做粗粒度的情绪判断，未命中时返回 neutral。
func ClassifySentiment(text string) string {
	lower := strings.ToLower(text)
	for _, row := range sentimentTable {
		for _, kw := range row.keywords {
			if strings.Contains(lower, kw) {
				return row.sentiment
			}
		}
	}
	return SentimentNeutral
}
