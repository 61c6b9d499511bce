// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"stress-guru-go/internal/config"
	"stress-guru-go/internal/content"
	"stress-guru-go/internal/handler"
	"stress-guru-go/internal/middleware"
	"stress-guru-go/internal/model"
	"stress-guru-go/internal/pipeline"
	"stress-guru-go/internal/repository"
	"stress-guru-go/internal/service"
	"stress-guru-go/pkg/database"
	"stress-guru-go/pkg/kafka"
	"stress-guru-go/pkg/log"
	"stress-guru-go/pkg/pssclient"
	"stress-guru-go/pkg/storage"
	"stress-guru-go/pkg/tasks"
	"stress-guru-go/pkg/token"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath, log.Rotation{
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、Redis、MongoDB 与对象存储
	database.InitMySQL(cfg.Database.MySQL.DSN, &model.User{}, &model.AssessmentRecord{})
	database.InitRedis(cfg.Database.Redis)
	database.InitMongo(cfg.Database.Mongo.URI, cfg.Database.Mongo.Database)
	if cfg.Content.Source == "minio" {
		storage.InitMinIO(cfg.MinIO)
	}

	// 4. 加载评估内容，校验失败直接退出
	fetcher, err := content.NewFetcher(cfg.Content, cfg.MinIO)
	if err != nil {
		log.Fatalf("内容来源配置错误: %v", err)
	}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	assessmentContent, err := content.Load(loadCtx, fetcher)
	cancelLoad()
	if err != nil {
		log.Fatalf("加载评估内容失败: %v", err)
	}

	// 5. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	assessRepo := repository.NewAssessmentRepository(database.DB)
	conversationRepo := repository.NewConversationRepository(database.RDB)
	sessionRepo := repository.NewSessionRepository(database.RDB)
	kbRepo := repository.NewKnowledgeBaseRepository(database.Mongo)

	// 6. 学习任务：启用 Kafka 时异步消费，否则在请求内同步完成
	processor := pipeline.NewProcessor(kbRepo)
	var publisher tasks.Publisher = pipeline.InlinePublisher{Processor: processor}
	var producer *kafka.Producer
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka)
		publisher = producer
		go kafka.StartConsumer(consumerCtx, cfg.Kafka, processor, database.RDB)
	}

	// 7. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, kbRepo, jwtManager, database.RDB)
	pssService := service.NewPSSService(kbRepo, assessRepo, publisher)

	defaultScheme, err := cfg.Assessment.Scheme()
	if err != nil {
		log.Fatalf("评估配置错误: %v", err)
	}
	pssBackend := service.LocalPSSBackend(pssService, cfg.Assessment.HistoryLimit)
	if cfg.Assessment.RemotePSS() {
		client := pssclient.NewClient(cfg.PSS)
		pssBackend = func(_ *model.User, tok string) service.PSSGateway {
			return client.WithToken(tok)
		}
		log.Infof("PSS 使用远程服务: %s", cfg.PSS.BaseURL)
	}
	chatService := service.NewChatService(assessmentContent, conversationRepo, sessionRepo, assessRepo, pssBackend, service.ChatOptions{
		DefaultScheme: defaultScheme,
		HistoryLimit:  cfg.Assessment.HistoryLimit,
	})

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	userHandler := handler.NewUserHandler(userService)
	pssHandler := handler.NewPSSHandler(pssService)
	chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)
	authRequired := middleware.AuthMiddleware(jwtManager, userService)

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/refreshToken", handler.NewAuthHandler(userService).RefreshToken)
		}

		users := apiV1.Group("/users")
		{
			// 无需认证的路由
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/reset-password", userHandler.ResetPassword)

			authed := users.Group("/")
			authed.Use(authRequired)
			{
				authed.GET("/me", userHandler.GetProfile)
				authed.POST("/logout", userHandler.Logout)
			}
		}

		pss := apiV1.Group("/pss")
		pss.Use(authRequired)
		{
			pss.GET("/questions", pssHandler.Questions)
			pss.POST("/next-question", pssHandler.NextQuestion)
			pss.POST("/assess", pssHandler.Assess)
			pss.GET("/history", pssHandler.History)
		}

		chat := apiV1.Group("/chat")
		chat.Use(authRequired)
		{
			chat.GET("/transcript", handler.NewConversationHandler(chatService).GetTranscript)
			chat.POST("/turn", chatHandler.Turn)
			chat.POST("/reset", chatHandler.Reset)
		}
	}
	// WebSocket 无法携带 Authorization 头，token 放在路径中
	r.GET("/chat/:token", chatHandler.Handle)

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	stopConsumer()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Errorf("关闭 Kafka 生产者失败: %v", err)
		}
	}
	database.CloseMongo(ctx)
	log.Info("服务已优雅关闭")
}
