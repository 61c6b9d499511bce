package assessment

import (
	"fmt"
	"sort"
)

// Question 是题库中的一道题，加载后不可变。
type Question struct {
	Index    int    `json:"index"`
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
}

// Content 是对话引擎依赖的全部静态内容，进程生命周期内只读。
type Content struct {
	Questions         []Question
	Keywords          KeywordTable
	Weight            int
	Bands             BandTable
	CategoryOrder     []string
	Vocabulary        Vocabulary
	Recommendations   Recommendations
	GreetingReactions map[string][]string
}

// Validate 校验内容的一致性，任何问题都以 ConfigurationError 返回。
func (c *Content) Validate() error {
	if c.Weight <= 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("weight must be positive, got %d", c.Weight)}
	}
	if len(c.Keywords) == 0 {
		return &ConfigurationError{Reason: "keyword table is empty"}
	}
	for _, tier := range c.Keywords {
		if tier.Score < 0 || tier.Score > 3 || len(tier.Keywords) == 0 {
			return &ConfigurationError{Reason: fmt.Sprintf("keyword tier %d is invalid", tier.Score)}
		}
	}
	if err := c.Bands.Validate(); err != nil {
		return err
	}
	if len(c.Questions) == 0 {
		return &ConfigurationError{Reason: "question list is empty"}
	}
	for i, q := range c.Questions {
		if q.Index != i {
			return &ConfigurationError{Reason: fmt.Sprintf("question %d has index %d", i, q.Index)}
		}
		if _, ok := c.Bands[q.Category]; !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("question %d category %q has no severity bands", i, q.Category)}
		}
	}
	ordered := make(map[string]bool, len(c.CategoryOrder))
	for _, cat := range c.CategoryOrder {
		if _, ok := c.Bands[cat]; !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("category %q has no severity bands", cat)}
		}
		ordered[cat] = true
	}
	if len(ordered) > 0 {
		for i, q := range c.Questions {
			if !ordered[q.Category] {
				return &ConfigurationError{Reason: fmt.Sprintf("question %d category %q is missing from category order", i, q.Category)}
			}
		}
	}
	if len(c.Vocabulary) == 0 {
		return &ConfigurationError{Reason: "likert vocabulary is empty"}
	}
	return nil
}

// Categories 返回结果展示时的类别顺序。未配置时按题目中首次出现的顺序。
func (c *Content) Categories() []string {
	if len(c.CategoryOrder) > 0 {
		return c.CategoryOrder
	}
	seen := make(map[string]bool)
	var out []string
	for _, q := range c.Questions {
		if !seen[q.Category] {
			seen[q.Category] = true
			out = append(out, q.Category)
		}
	}
	return out
}

// SortedCategories 返回区间表中所有类别，按名称排序。
func (c *Content) SortedCategories() []string {
	out := make([]string, 0, len(c.Bands))
	for k := range c.Bands {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

const (
	CategoryStress     = "Stress"
	CategoryAnxiety    = "Anxiety"
	CategoryDepression = "Depression"
)

// CategoryCodes 是题库中使用的单字母类别代码。
var CategoryCodes = map[string]string{
	"S": CategoryStress,
	"A": CategoryAnxiety,
	"D": CategoryDepression,
}

var dassItems = []struct {
	code string
	text string
}{
	{"S", "Over the past week, have you found it hard to wind down?"},
	{"A", "Have you been aware of dryness of your mouth?"},
	{"D", "Have you found it hard to experience any positive feeling at all?"},
	{"A", "Have you had trouble breathing, like breathing too fast or feeling breathless without physical effort?"},
	{"D", "Have you found it difficult to work up the initiative to do things?"},
	{"S", "Have you tended to over-react to situations?"},
	{"A", "Have you experienced trembling, for example in your hands?"},
	{"S", "Have you felt that you were using a lot of nervous energy?"},
	{"A", "Have you been worried about situations in which you might panic and make a fool of yourself?"},
	{"D", "Have you felt that you had nothing to look forward to?"},
	{"S", "Have you found yourself getting agitated?"},
	{"S", "Have you found it difficult to relax?"},
	{"D", "Have you felt down-hearted and blue?"},
	{"S", "Have you been intolerant of anything that kept you from getting on with what you were doing?"},
	{"A", "Have you felt close to panic?"},
	{"D", "Have you been unable to become enthusiastic about anything?"},
	{"D", "Have you felt you weren't worth much as a person?"},
	{"S", "Have you felt that you were rather touchy?"},
	{"A", "Have you noticed your heart racing or skipping a beat without physical exertion?"},
	{"A", "Have you felt scared without any good reason?"},
	{"D", "Have you felt that life was meaningless?"},
}

// DefaultQuestions 返回内置的 21 道 DASS 题目。
func DefaultQuestions() []Question {
	qs := make([]Question, len(dassItems))
	for i, it := range dassItems {
		qs[i] = Question{Index: i, Text: it.text, Category: CategoryCodes[it.code]}
	}
	return qs
}

// DefaultKeywords 返回内置的 DASS 关键词档位表，扫描顺序从 0 档到 3 档。
func DefaultKeywords() KeywordTable {
	return KeywordTable{
		{Score: 0, Keywords: []string{"no", "never", "not at all"}},
		{Score: 1, Keywords: []string{"a little", "sometimes", "rarely"}},
		{Score: 2, Keywords: []string{"maybe", "occasionally", "quite a bit"}},
		{Score: 3, Keywords: []string{"yes", "often", "frequently", "a lot"}},
	}
}

// DefaultBands 返回内置的 DASS 严重程度区间表（已乘权重 2 后的分数）。
func DefaultBands() BandTable {
	return BandTable{
		CategoryStress: {
			{Min: 0, Max: Upper(14), Label: "Normal"},
			{Min: 15, Max: Upper(18), Label: "Mild"},
			{Min: 19, Max: Upper(25), Label: "Moderate"},
			{Min: 26, Max: Upper(33), Label: "Severe"},
			{Min: 34, Label: "Extremely Severe"},
		},
		CategoryAnxiety: {
			{Min: 0, Max: Upper(7), Label: "Normal"},
			{Min: 8, Max: Upper(9), Label: "Mild"},
			{Min: 10, Max: Upper(14), Label: "Moderate"},
			{Min: 15, Max: Upper(19), Label: "Severe"},
			{Min: 20, Label: "Extremely Severe"},
		},
		CategoryDepression: {
			{Min: 0, Max: Upper(9), Label: "Normal"},
			{Min: 10, Max: Upper(13), Label: "Mild"},
			{Min: 14, Max: Upper(20), Label: "Moderate"},
			{Min: 21, Max: Upper(27), Label: "Severe"},
			{Min: 28, Label: "Extremely Severe"},
		},
	}
}

// DefaultVocabulary 返回 PSS 的 5 级 Likert 词表。
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		{Label: "never", Value: 0},
		{Label: "almost never", Value: 1},
		{Label: "sometimes", Value: 2},
		{Label: "fairly often", Value: 3},
		{Label: "very often", Value: 4},
	}
}

// DefaultRecommendations 返回内置推荐表。
func DefaultRecommendations() Recommendations {
	return Recommendations{
		ByCategory: map[string]map[string][]string{
			CategoryStress: {
				"Normal":           {"Keep up your regular exercise routine", "Maintain a consistent sleep schedule"},
				"Mild":             {"Take short breaks during work or study", "Go for a 15-minute walk", "Try a simple breathing exercise"},
				"Moderate":         {"Practice progressive muscle relaxation", "Write down what is on your mind before bed", "Limit caffeine in the afternoon"},
				"Severe":           {"Set aside time each day for something you enjoy", "Break big tasks into small steps", "Talk with a counsellor about your workload"},
				"Extremely Severe": {"Reach out to a mental health professional", "Let someone close to you know how you are feeling"},
			},
			CategoryAnxiety: {
				"Normal":           {"Keep a gratitude journal", "Stay active with activities you like"},
				"Mild":             {"Try the 4-7-8 breathing technique", "Spend some time in nature"},
				"Moderate":         {"Practice grounding: name five things you can see", "Reduce screen time before sleep", "Try a guided meditation"},
				"Severe":           {"Schedule worry time instead of worrying all day", "Avoid alcohol and excess caffeine", "Consider speaking with a therapist"},
				"Extremely Severe": {"Contact a mental health professional", "Use a crisis line if you feel overwhelmed"},
			},
			CategoryDepression: {
				"Normal":           {"Keep in touch with friends and family", "Keep doing the hobbies you enjoy"},
				"Mild":             {"Get some sunlight every morning", "Plan one small enjoyable activity each day"},
				"Moderate":         {"Set small, achievable daily goals", "Exercise for 20 minutes a few times a week", "Reach out to a friend for a chat"},
				"Severe":           {"Keep a simple daily routine", "Talk to your doctor about how you have been feeling"},
				"Extremely Severe": {"Please reach out to a mental health professional", "Contact a crisis line if you are having thoughts of self-harm"},
			},
		},
		ByStressLevel: map[string][]string{
			"low stress":      {"Keep up your healthy habits", "Schedule regular time for hobbies"},
			"moderate stress": {"Practice mindfulness for ten minutes a day", "Take regular breaks from work", "Get outside for some fresh air"},
			"high stress":     {"Talk to someone you trust", "Try progressive muscle relaxation", "Consider speaking with a mental health professional"},
		},
		Default: clone(defaultActivities),
	}
}

// DefaultGreetingReactions 返回开场情绪对应的回应语。
func DefaultGreetingReactions() map[string][]string {
	return map[string][]string{
		SentimentGood:    {"That's wonderful to hear!", "I'm so glad you're doing well!"},
		SentimentOkay:    {"Thanks for sharing. Some days are just okay, and that's alright."},
		SentimentBad:     {"I'm sorry to hear that. I'm here for you.", "That sounds hard. Thank you for telling me."},
		SentimentNeutral: {"Thanks for sharing how you feel."},
	}
}

// DefaultContent 返回完整的内置内容。
func DefaultContent() *Content {
	return &Content{
		Questions:         DefaultQuestions(),
		Keywords:          DefaultKeywords(),
		Weight:            2,
		Bands:             DefaultBands(),
		CategoryOrder:     []string{CategoryStress, CategoryAnxiety, CategoryDepression},
		Vocabulary:        DefaultVocabulary(),
		Recommendations:   DefaultRecommendations(),
		GreetingReactions: DefaultGreetingReactions(),
	}
}
