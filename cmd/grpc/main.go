package main

import (
	"flag"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"transfer-indexer-sol/internal/config"
	"transfer-indexer-sol/internal/logic/grpc"
	"transfer-indexer-sol/internal/svc"
	"transfer-indexer-sol/pkg/logger"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/grpc.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
			logger.Sync()
			os.Exit(1)
		}
	}()

	flag.Parse()

	var c config.GrpcConfig
	config.MustLoad(*configFile, &c)

	if err := logger.Init(c.LogConf.ToLogOption()); err != nil {
		panic(err)
	}
	defer logger.Sync()

	serviceContext, err := svc.NewGrpcServiceContext(c)
	if err != nil {
		panic(err)
	}
	defer serviceContext.Close()

	blockChan := make(chan *pb.SubscribeUpdateBlock, c.Grpc.BlockChanSize)
	replayChan := make(chan *pb.SubscribeUpdateBlock, 64)

	sg := zerosvc.NewServiceGroup()

	// 补块检查，未配置 rpc.endpoint 时关闭
	checker := grpc.NewSlotChecker(serviceContext, replayChan)
	if checker != nil {
		sg.Add(checker)
	} else {
		logger.Warnf("rpc.endpoint 未配置，slot 缺口只记录不补块")
	}

	sg.Add(grpc.NewBlockProcessor(serviceContext, blockChan, replayChan, checker))

	if serviceContext.ProgressManager != nil {
		sg.Add(serviceContext.ProgressManager)
	}

	grpcService, err := grpc.NewGrpcStreamManager(serviceContext, blockChan)
	if err != nil {
		panic(err)
	}
	sg.Add(grpcService)

	logger.Infof("Starting transfer indexer, grpc=%s, topic=%s",
		c.Grpc.Endpoint, c.KafkaProducerConf.Topics.Transfer)

	// 启动服务
	go sg.Start()

	// 等待退出信号
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Infof("Shutting down services...")
	sg.Stop()
}
