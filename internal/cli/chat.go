package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stress-guru-go/internal/adaptive"
	"stress-guru-go/internal/assessment"
	"stress-guru-go/internal/content"
	"stress-guru-go/internal/model"
	"stress-guru-go/internal/pipeline"
	"stress-guru-go/internal/repository"
	"stress-guru-go/internal/service"
	"stress-guru-go/pkg/database"
)

var (
	chatScheme   string
	chatDB       string
	historyLimit int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assessment bot in the terminal",
	Long: `Start an assessment conversation on stdin/stdout. DASS questions come
from the content directory; PSS questions are chosen by the in-process
adaptive engine. Type "quit" to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := content.Load(cmd.Context(), content.DirFetcher{Dir: contentDir})
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), c, chatOptions{
			Scheme:       chatScheme,
			DBPath:       chatDB,
			HistoryLimit: historyLimit,
		})
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatScheme, "scheme", "dass", "Assessment scheme: dass or pss")
	chatCmd.Flags().StringVar(&chatDB, "db", ":memory:", "SQLite file for assessment history")
	chatCmd.Flags().IntVar(&historyLimit, "history-limit", 5, "Number of past assessments to show")
}

type chatOptions struct {
	Scheme       string
	DBPath       string
	HistoryLimit int
	Now          func() time.Time
}

// localUser 是离线模式下唯一的用户。
var localUser = &model.User{ID: 1, Email: "local@stressctl", Username: "local", Role: model.RoleUser}

// newOfflineChat 用进程内存储组装与服务端相同的对话服务。
func newOfflineChat(ctx context.Context, c *assessment.Content, opts chatOptions) (service.ChatService, error) {
	db, err := database.OpenSQLite(opts.DBPath, &model.AssessmentRecord{})
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	assessRepo := repository.NewAssessmentRepository(db)

	kbRepo := repository.NewMemoryKnowledgeBaseRepository()
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	if _, err := kbRepo.Insert(ctx, adaptive.SeedKnowledgeBase(service.KnowledgeBaseID(localUser.ID), now())); err != nil {
		return nil, err
	}
	learner := pipeline.InlinePublisher{Processor: pipeline.NewProcessor(kbRepo)}
	pss := service.NewPSSService(kbRepo, assessRepo, learner)

	var engineOpts []assessment.Option
	if opts.Now != nil {
		engineOpts = append(engineOpts, assessment.WithClock(opts.Now))
	}
	return service.NewChatService(
		c,
		repository.NewMemoryConversationRepository(),
		repository.NewMemorySessionRepository(),
		assessRepo,
		service.LocalPSSBackend(pss, opts.HistoryLimit),
		service.ChatOptions{HistoryLimit: opts.HistoryLimit},
		engineOpts...,
	), nil
}

func runChat(ctx context.Context, in io.Reader, out io.Writer, c *assessment.Content, opts chatOptions) error {
	chat, err := newOfflineChat(ctx, c, opts)
	if err != nil {
		return err
	}
	entries, err := chat.Start(ctx, localUser, "", opts.Scheme)
	if err != nil {
		return err
	}
	printEntries(out, entries)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return nil
		}
		// 出错时道歉语已在记录中，对话继续
		entries, _ := chat.HandleTurn(ctx, localUser, "", line)
		printEntries(out, entries)
	}
}

func printEntries(out io.Writer, entries []assessment.Entry) {
	for _, e := range entries {
		if e.Sender == assessment.SenderSystem {
			fmt.Fprintf(out, "bot: %s\n", e.Text)
		}
	}
}
