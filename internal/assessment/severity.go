package assessment

import "fmt"

// Band 是一个闭区间 [Min, Max]，Max 为 nil 表示无上界。
type Band struct {
	Min   int    `json:"min"`
	Max   *int   `json:"max,omitempty"`
	Label string `json:"label"`
}

func (b Band) contains(total int) bool {
	return total >= b.Min && (b.Max == nil || total <= *b.Max)
}

// BandTable 按类别保存严重程度区间表。
type BandTable map[string][]Band

// ValidateBands 检查区间表覆盖 [0, +∞) 且无空隙、无重叠，只有最后一个区间可以无上界。
func ValidateBands(category string, bands []Band) error {
	if len(bands) == 0 {
		return &ConfigurationError{Reason: fmt.Sprintf("category %q has no severity bands", category)}
	}
	next := 0
	for i, b := range bands {
		if b.Label == "" {
			return &ConfigurationError{Reason: fmt.Sprintf("category %q band %d has no label", category, i)}
		}
		if b.Min != next {
			return &ConfigurationError{Reason: fmt.Sprintf("category %q band %d starts at %d, want %d", category, i, b.Min, next)}
		}
		last := i == len(bands)-1
		if b.Max == nil {
			if !last {
				return &ConfigurationError{Reason: fmt.Sprintf("category %q band %d is unbounded but not last", category, i)}
			}
			continue
		}
		if last {
			return &ConfigurationError{Reason: fmt.Sprintf("category %q last band must be unbounded", category)}
		}
		if *b.Max < b.Min {
			return &ConfigurationError{Reason: fmt.Sprintf("category %q band %d has max %d below min %d", category, i, *b.Max, b.Min)}
		}
		next = *b.Max + 1
	}
	return nil
}

// Validate 校验表中的每一个类别。
func (t BandTable) Validate() error {
	for category, bands := range t {
		if err := ValidateBands(category, bands); err != nil {
			return err
		}
	}
	return nil
}

// Classify 返回第一个包含 total 的区间标签。
func (t BandTable) Classify(category string, total int) (string, error) {
	for _, b := range t[category] {
		if b.contains(total) {
			return b.Label, nil
		}
	}
	return "", &ConfigurationError{
		Reason: fmt.Sprintf("category %q score %d", category, total),
		Err:    ErrNoMatchingRange,
	}
}

// Upper 构造区间上界，便于书写区间表字面量。
func Upper(n int) *int { return &n }
