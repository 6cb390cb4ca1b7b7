//go:build wireinject
// +build wireinject

package wire

import (
	chathandler "maggram/internal/chat/handler"
	chatrepo "maggram/internal/chat/repository"
	chatservice "maggram/internal/chat/service"
	"maggram/internal/config"
	"maggram/internal/dbmongo"
	"maggram/internal/dbmysql"
	"maggram/internal/feed"
	"maggram/internal/storage"
	"maggram/internal/user"

	"github.com/google/wire"
	"gorm.io/gorm"
)

type Application struct {
	Config *config.Config
	DB     *gorm.DB
	Mongo  *dbmongo.MongoClient

	UserHandler *user.UserHandler
	FeedHandler *feed.FeedHandlers
	ChatHandler *chathandler.ChatHandler

	ChatSvc chatservice.ChatService
}

func InitializeApplication() (*Application, error) {
	wire.Build(
		config.Load,
		dbmysql.NewMySQL,
		dbmongo.NewMongoConnection,
		dbmongo.NewMediaStorage,
		ProvideDiskStore,

		user.NewUserRepository,
		user.NewFollowRepository,
		user.NewUserService,
		user.NewUserHandler,

		feed.NewFeedRepository,
		wire.Bind(new(feed.Posts), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Likes), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Comments), new(*feed.FeedRepository)),
		wire.Bind(new(feed.Graph), new(*feed.FeedRepository)),
		wire.Bind(new(feed.MediaStore), new(*dbmongo.MediaStorage)),
		wire.Bind(new(feed.MediaReader), new(*dbmongo.MediaStorage)),
		feed.NewFeedService,
		wire.Bind(new(feed.FeedUsecase), new(*feed.FeedService)),
		feed.NewFeedHandlers,

		chatrepo.NewChatRepository,
		wire.Bind(new(chatservice.FileStore), new(*storage.DiskStore)),
		ProvideChatService,
		chathandler.NewChatHandler,

		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}

func ProvideDiskStore(cfg *config.Config) (*storage.DiskStore, error) {
	return storage.NewDiskStore(cfg.Uploads.Root)
}

func ProvideChatService(repo chatrepo.ChatRepository, files chatservice.FileStore, cfg *config.Config) chatservice.ChatService {
	return chatservice.NewChatService(repo, files, cfg.Retention.SweepBatchSize, cfg.Retention.SweepInterval)
}
