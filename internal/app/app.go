package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"tush00nka/captionchat/internal/config"
	"tush00nka/captionchat/internal/handler"
	"tush00nka/captionchat/internal/pkg/auth"
	"tush00nka/captionchat/internal/pkg/caption"
	"tush00nka/captionchat/internal/pkg/realtime"
	"tush00nka/captionchat/internal/pkg/storage"
	"tush00nka/captionchat/internal/repository"
	"tush00nka/captionchat/internal/repository/firestore"
	"tush00nka/captionchat/internal/repository/memory"
	"tush00nka/captionchat/internal/service"
	"tush00nka/captionchat/internal/ws"
)

// stores репозитории выбранного STORE_DRIVER плюс то, что нужно закрыть при остановке.
type stores struct {
	users    repository.UserRepository
	rooms    repository.ChatRoomRepository
	messages repository.MessageRepository
	captions repository.CaptionRepository
	sessions repository.SessionRepository
	scratch  repository.ScratchRepository
	broker   realtime.Broker
	files    storage.FileStore
	closers  []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Printf("close: %v", err)
		}
	}
}

// Run собирает зависимости и блокируется до отмены ctx.
func Run(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	tokens := auth.NewTokenManager(cfg.JWTKey, cfg.JWTTTL)
	captioner := caption.NewClient(cfg.CaptionAPIURL, cfg.CaptionAPIKey, cfg.CaptionTimeout)

	authService := service.NewAuthService(st.users, st.sessions, tokens)
	chatService := service.NewChatService(st.rooms, st.users, st.broker)
	messageService := service.NewMessageService(st.rooms, st.messages, st.captions, st.files, st.broker)
	catalogService := service.NewCatalogService(chatService, st.messages, st.captions, st.files)
	scratchService := service.NewScratchService(st.scratch, st.broker)

	hub := ws.NewHub()
	defer hub.Shutdown()
	upgrader := ws.NewUpgrader(cfg.Origins(), cfg.IsDevelopment())

	h := Handlers{
		Auth:    handler.NewAuthenticator(authService),
		User:    handler.NewUserHandler(authService),
		Chat:    handler.NewChatHandler(chatService),
		Message: handler.NewMessageHandler(chatService, messageService),
		Catalog: handler.NewCatalogHandler(chatService, catalogService),
		Caption: handler.NewCaptionHandler(captioner),
		Scratch: handler.NewScratchHandler(scratchService),
		WS:      handler.NewWSHandler(hub, upgrader, chatService, messageService, scratchService),
	}
	if _, ok := st.files.(*storage.MemoryStore); ok {
		h.Files = handler.NewFileHandler(st.files)
	}

	server := NewServer(cfg, h)
	return server.Run(ctx, cfg.ServerPort)
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := repository.NewDB(cfg.DSN(), cfg.IsDevelopment())
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(db); err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			st.closers = append(st.closers, sqlDB.Close)
		}
		st.users = repository.NewUserRepository(db)
		st.rooms = repository.NewChatRoomRepository(db)
		st.messages = repository.NewMessageRepository(db)
		st.captions = repository.NewCaptionRepository(db)
		log.Println("Using postgres store")

	case config.DriverFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreDatabase)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, client.Close)
		st.users = firestore.NewUserRepository(client)
		st.rooms = firestore.NewChatRoomRepository(client)
		st.messages = firestore.NewMessageRepository(client)
		st.captions = firestore.NewCaptionRepository(client)
		log.Printf("Using firestore store, project %s", cfg.FirestoreProjectID)

	case config.DriverMemory:
		st.users = memory.NewUserRepository()
		st.rooms = memory.NewChatRoomRepository()
		st.messages = memory.NewMessageRepository()
		st.captions = memory.NewCaptionRepository()
		log.Println("Using in-memory store, data is lost on restart")

	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.RedisAddr != "" {
		rdb, err := repository.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, rdb.Close)
		st.sessions = repository.NewSessionRepository(rdb)
		st.scratch = repository.NewScratchRepository(rdb)
		st.broker = realtime.NewRedisBroker(rdb)
		log.Printf("Using redis at %s for sessions and realtime", cfg.RedisAddr)
	} else {
		st.sessions = memory.NewSessionRepository()
		st.scratch = memory.NewScratchRepository()
		st.broker = realtime.NewMemoryBroker()
	}

	if cfg.S3BucketName != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.S3BucketName,
			URLExpiry:       cfg.S3URLExpiry,
		})
		if err != nil {
			st.Close()
			return nil, err
		}

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s3Store.HealthCheck(checkCtx); err != nil {
			log.Printf("WARNING: bucket %s is not reachable: %v", cfg.S3BucketName, err)
		}
		cancel()
		st.files = s3Store
	} else {
		st.files = storage.NewMemoryStore(cfg.PublicURL)
		log.Println("Using in-memory file storage")
	}

	return st, nil
}
