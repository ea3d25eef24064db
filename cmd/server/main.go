package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wfunc/cash-acceptor/internal/api"
	"github.com/wfunc/cash-acceptor/internal/config"
	"github.com/wfunc/cash-acceptor/internal/database"
	"github.com/wfunc/cash-acceptor/internal/hardware"
	"github.com/wfunc/cash-acceptor/internal/logger"
	"github.com/wfunc/cash-acceptor/internal/repository"
	"github.com/wfunc/cash-acceptor/internal/websocket"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	driver     *hardware.Driver
	hub        *websocket.Hub
	httpServer *http.Server
	events     repository.AcceptorEventRepository

	wg sync.WaitGroup
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("cash-acceptor %s (build %s, commit %s)\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	// 创建并启动服务
	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务启动失败", zap.Error(err))
	}

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		logger.Info("配置已更新（串口与数据库配置需重启生效）")
	})

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("收到退出信号，正在关闭...")
	server.Shutdown()
	logger.Info("服务已安全关闭")
}

// NewServer 创建服务实例
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
	}
}

// Start 启动各个组件
// 串口和数据库打不开是致命错误，其余错误只记录
func (s *Server) Start() error {
	s.logger.Info("正在启动纸币器服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	// 初始化数据库（致命）
	if err := database.Init(&s.cfg.Database); err != nil {
		return err
	}
	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(); err != nil {
			return err
		}
	}

	db := database.GetDB()

	// 播种面额账本（幂等）
	billCounts := repository.NewBillCountRepository(db)
	if err := billCounts.Seed(context.Background()); err != nil {
		return err
	}
	s.events = repository.NewAcceptorEventRepository(db)

	// 打开串口（致命）；未接硬件或调试模式下使用模拟传输层
	var transport hardware.Transport
	if !s.cfg.Acceptor.Enabled || s.cfg.Acceptor.MockMode {
		s.logger.Warn("纸币器运行在模拟模式，不连接真实硬件")
		transport = hardware.NewMockTransport()
	} else {
		var err error
		transport, err = hardware.OpenTransport(&s.cfg.Acceptor)
		if err != nil {
			return err
		}
	}

	// 启动驱动
	s.driver = hardware.NewDriver(&s.cfg.Acceptor, transport, billCounts)
	if err := s.driver.Start(); err != nil {
		return err
	}

	// 启动事件广播
	s.hub = websocket.NewHub(s.logger)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	// 启动事件消费循环
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consumeEvents()
	}()

	// 启动HTTP服务
	router := api.NewRouter(db, s.driver, s.hub, s.cfg, s.logger)
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	s.logger.Info("服务启动成功",
		zap.String("http", s.httpServer.Addr),
		zap.String("serial", s.cfg.Acceptor.Port),
	)

	return nil
}

// consumeEvents 消费驱动发出的纸币事件
// 每个事件先落审计表再广播，落表失败只记录不中断
func (s *Server) consumeEvents() {
	for event := range s.driver.Events() {
		if _, err := s.events.Record(context.Background(), event); err != nil {
			s.logger.Error("事件审计落表失败",
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}

		logger.LogBillEvent(string(event.Type), event.Denomination.Value(), event.Reason)

		s.hub.BroadcastBillEvent(event)
	}
}

// Shutdown 优雅关闭
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 先停HTTP，再停驱动，最后关数据库
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP服务关闭失败", zap.Error(err))
		}
	}

	if s.driver != nil {
		s.driver.Stop()
	}

	if s.hub != nil {
		s.hub.Stop()
	}

	// 等待事件消费循环退出前给它一点时间清空缓冲
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.logger.Warn("后台任务未在超时前退出")
	}

	if err := database.Close(); err != nil {
		s.logger.Error("数据库关闭失败", zap.Error(err))
	}
}
