package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"uploadwatch/internal/config"
	"uploadwatch/internal/handler"
	"uploadwatch/internal/processor"
	"uploadwatch/internal/producer"
	"uploadwatch/internal/repository"
	"uploadwatch/internal/service"
)

type Server struct {
	httpServer *http.Server
	cfg        *config.Config
	log        *zap.Logger
	closers    []io.Closer
}

func New(cfg *config.Config, log *zap.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	processors, closers, err := buildProcessors(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build processors: %w", err)
	}

	eventService := service.NewEventService(processors, os.Stdout, log)

	h := handler.NewHandler(eventService, log)

	router.GET("/health", h.HealthCheck)
	router.POST("/events", h.ReceiveEvent)

	server := &Server{
		httpServer: &http.Server{
			Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
			Handler:        router,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		cfg:     cfg,
		log:     log,
		closers: closers,
	}

	log.Info("Server created successfully",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.Int("processors", len(processors)))

	return server, nil
}

// buildProcessors assembles the enabled processing steps in dispatch order:
// download (optionally archiving), metadata, workflow.
func buildProcessors(cfg *config.Config, log *zap.Logger) ([]processor.Processor, []io.Closer, error) {
	var (
		processors []processor.Processor
		closers    []io.Closer
	)

	if cfg.Processors.Download {
		objects, err := repository.NewObjectRepository(&cfg.S3, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create object repository: %w", err)
		}

		var sink processor.Sink
		if cfg.Processors.Archive {
			archive, err := processor.NewArchive(cfg.Archive.Dir, log)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to create archive: %w", err)
			}
			sink = archive
		}

		processors = append(processors, processor.NewDownload(objects, sink, log))
	}

	if cfg.Processors.Metadata {
		if err := repository.RunMigrations(cfg.DB.DSN, cfg.DB.MigrationsPath, log); err != nil {
			return nil, nil, err
		}

		metadata, err := repository.NewMetadataRepository(cfg.DB.DSN, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create metadata repository: %w", err)
		}
		closers = append(closers, metadata)

		processors = append(processors, processor.NewMetadata(metadata, log))
	}

	if cfg.Processors.Workflow {
		kafkaProducer := producer.NewKafkaProducer(cfg.Kafka.Broker, cfg.Kafka.Topic)
		closers = append(closers, kafkaProducer)

		processors = append(processors, processor.NewWorkflow(kafkaProducer, log))
	}

	return processors, closers, nil
}

func (s *Server) Run() error {
	s.log.Info("Server is running",
		zap.String("address", s.httpServer.Addr))

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")

	err := s.httpServer.Shutdown(ctx)

	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil {
			s.log.Error("Failed to close resource", zap.Error(cerr))
			if err == nil {
				err = cerr
			}
		}
	}

	return err
}
