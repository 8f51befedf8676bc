package main

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"gridbase/gridbase_go_view_engine_service/apiserver"
	"gridbase/gridbase_go_view_engine_service/config"
	"gridbase/gridbase_go_view_engine_service/pkg/logger"
)

func main() {
	cfg := config.Load()

	loggerLevel := logger.LevelDebug

	switch cfg.Environment {
	case config.DebugMode:
		loggerLevel = logger.LevelDebug
		gin.SetMode(gin.DebugMode)
	case config.TestMode:
		loggerLevel = logger.LevelDebug
		gin.SetMode(gin.TestMode)
	default:
		loggerLevel = logger.LevelInfo
		gin.SetMode(gin.ReleaseMode)
	}

	log := logger.NewLogger(cfg.ServiceName, loggerLevel)
	defer logger.Cleanup(log)
	log.Info("Service env", logger.Any("cfg", cfg))

	if cfg.JaegerHostPort != "" {
		closer, err := initTracer(cfg)
		if err != nil {
			log.Panic("initTracer", logger.Error(err))
		}
		defer closer.Close()
	}

	server := apiserver.New(log)

	log.Info("HTTP: Server being started...", logger.String("port", cfg.ServicePort))

	if err := server.Engine().Run(cfg.ServicePort); err != nil {
		log.Panic("server.Run", logger.Error(err))
	}
}

func initTracer(cfg config.Config) (io.Closer, error) {
	jcfg := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: cfg.JaegerHostPort,
		},
	}

	tracer, closer, err := jcfg.NewTracer()
	if err != nil {
		return nil, err
	}

	opentracing.SetGlobalTracer(tracer)
	return closer, nil
}
