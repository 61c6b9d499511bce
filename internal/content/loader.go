// Package content 从本地目录或 MinIO 加载评估所需的静态内容，并在启动时校验。
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/minio/minio-go/v7"

	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/config"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/storage"
)

const (
	FileDASS            = "dass_data.json"
	FileChatbot         = "chatbot_data.json"
	FileRecommendations = "activity_recommendations.json"
	FileScoring         = "scoring.json"
)

// ErrNotFound 表示内容文件不存在，此时使用内置默认值。
var ErrNotFound = errors.New("content file not found")

// Fetcher 按文件名读取内容文件。
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// DirFetcher 从本地目录读取。
type DirFetcher struct {
	Dir string
}

func (f DirFetcher) Fetch(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// MinioFetcher 从 MinIO 存储桶读取，对象名为 Prefix/name。
type MinioFetcher struct {
	Client *minio.Client
	Bucket string
	Prefix string
}

func (f MinioFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := storage.GetObjectBytes(ctx, f.Client, f.Bucket, path.Join(f.Prefix, name))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

// NewFetcher 根据配置选择内容来源。
func NewFetcher(cfg config.ContentConfig, minioCfg config.MinIOConfig) (Fetcher, error) {
	switch cfg.Source {
	case "", "local":
		return DirFetcher{Dir: cfg.Dir}, nil
	case "minio":
		if storage.MinioClient == nil {
			return nil, errors.New("minio client is not initialized")
		}
		return MinioFetcher{Client: storage.MinioClient, Bucket: minioCfg.BucketName, Prefix: cfg.Prefix}, nil
	default:
		return nil, fmt.Errorf("unknown content source %q", cfg.Source)
	}
}

type dassDoc struct {
	Questions  []string `json:"questions"`
	Categories []string `json:"categories"`
}

type chatbotDoc struct {
	GreetingReactions map[string][]string `json:"greeting_reactions"`
}

type scoringDoc struct {
	ScoreKeywords   map[string][]string          `json:"score_keywords"`
	CategoryMapping map[string]string            `json:"category_mapping"`
	CategoryOrder   []string                     `json:"category_order"`
	Weight          int                          `json:"weight"`
	SeverityBands   map[string][]assessment.Band `json:"severity_bands"`
	PSSVocabulary   []assessment.LikertOption    `json:"pss_vocabulary"`
}

// Load 读取四个内容文件并合并到内置默认值之上，最后整体校验。
// 缺失的文件沿用默认值；格式错误或校验失败返回 *assessment.ConfigurationError。
func Load(ctx context.Context, f Fetcher) (*assessment.Content, error) {
	c := assessment.DefaultContent()
	codes := assessment.CategoryCodes

	var scoring scoringDoc
	found, err := fetchJSON(ctx, f, FileScoring, &scoring)
	if err != nil {
		return nil, err
	}
	if found {
		if len(scoring.ScoreKeywords) > 0 {
			if c.Keywords, err = keywordTable(scoring.ScoreKeywords); err != nil {
				return nil, err
			}
		}
		if len(scoring.CategoryMapping) > 0 {
			codes = scoring.CategoryMapping
		}
		if len(scoring.CategoryOrder) > 0 {
			c.CategoryOrder = scoring.CategoryOrder
		}
		if scoring.Weight != 0 {
			c.Weight = scoring.Weight
		}
		if len(scoring.SeverityBands) > 0 {
			c.Bands = scoring.SeverityBands
		}
		if len(scoring.PSSVocabulary) > 0 {
			c.Vocabulary = scoring.PSSVocabulary
		}
	}

	var dass dassDoc
	if found, err = fetchJSON(ctx, f, FileDASS, &dass); err != nil {
		return nil, err
	}
	if found {
		if c.Questions, err = questions(dass, codes); err != nil {
			return nil, err
		}
	}

	var chatbot chatbotDoc
	if found, err = fetchJSON(ctx, f, FileChatbot, &chatbot); err != nil {
		return nil, err
	}
	if found && len(chatbot.GreetingReactions) > 0 {
		c.GreetingReactions = chatbot.GreetingReactions
	}

	var recs map[string]json.RawMessage
	if found, err = fetchJSON(ctx, f, FileRecommendations, &recs); err != nil {
		return nil, err
	}
	if found {
		if c.Recommendations, err = recommendations(recs); err != nil {
			return nil, err
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	log.Infof("评估内容加载完成: %d 道题, %d 个类别", len(c.Questions), len(c.Bands))
	return c, nil
}

func fetchJSON(ctx context.Context, f Fetcher, name string, v interface{}) (bool, error) {
	data, err := f.Fetch(ctx, name)
	if errors.Is(err, ErrNotFound) {
		log.Warnf("内容文件 %s 不存在，使用内置默认值", name)
		return false, nil
	}
	if err != nil {
		return false, &assessment.ConfigurationError{Reason: "read " + name, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, &assessment.ConfigurationError{Reason: "parse " + name, Err: err}
	}
	return true, nil
}

// keywordTable 将 {"0": [...], "1": [...]} 转为按分数升序扫描的档位表。
func keywordTable(raw map[string][]string) (assessment.KeywordTable, error) {
	table := make(assessment.KeywordTable, 0, len(raw))
	for k, kws := range raw {
		score, err := strconv.Atoi(k)
		if err != nil {
			return nil, &assessment.ConfigurationError{Reason: fmt.Sprintf("keyword tier %q is not a number", k)}
		}
		table = append(table, assessment.Tier{Score: score, Keywords: kws})
	}
	sort.Slice(table, func(i, j int) bool { return table[i].Score < table[j].Score })
	return table, nil
}

func questions(doc dassDoc, codes map[string]string) ([]assessment.Question, error) {
	if len(doc.Questions) != len(doc.Categories) {
		return nil, &assessment.ConfigurationError{
			Reason: fmt.Sprintf("%s has %d questions but %d categories", FileDASS, len(doc.Questions), len(doc.Categories)),
		}
	}
	qs := make([]assessment.Question, len(doc.Questions))
	for i, text := range doc.Questions {
		category, ok := codes[doc.Categories[i]]
		if !ok {
			return nil, &assessment.ConfigurationError{Reason: fmt.Sprintf("question %d has unknown category code %q", i, doc.Categories[i])}
		}
		qs[i] = assessment.Question{Index: i, Text: text, Category: category}
	}
	return qs, nil
}

// recommendations 解析推荐表：除 stress_levels 与 default 外，每个键都是一个类别。
func recommendations(raw map[string]json.RawMessage) (assessment.Recommendations, error) {
	recs := assessment.Recommendations{ByCategory: make(map[string]map[string][]string)}
	for key, value := range raw {
		var err error
		switch key {
		case "stress_levels":
			err = json.Unmarshal(value, &recs.ByStressLevel)
		case "default":
			err = json.Unmarshal(value, &recs.Default)
		default:
			var byLabel map[string][]string
			if err = json.Unmarshal(value, &byLabel); err == nil {
				recs.ByCategory[key] = byLabel
			}
		}
		if err != nil {
			return recs, &assessment.ConfigurationError{Reason: "parse " + FileRecommendations + " key " + key, Err: err}
		}
	}
	return recs, nil
}
