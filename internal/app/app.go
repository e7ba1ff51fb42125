package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hubmatrix/cloudtree/internal/config"
	"github.com/hubmatrix/cloudtree/internal/db"
	"github.com/hubmatrix/cloudtree/internal/repository"
	"github.com/hubmatrix/cloudtree/internal/service"
	"github.com/hubmatrix/cloudtree/internal/storage"
)

type App struct {
	Cfg *config.Config
	DB  *sqlx.DB

	ChannelRepository repository.ChannelRepository

	IdentityService   *service.IdentityService
	PermissionService *service.PermissionService
	TreeService       *service.TreeService
	RootService       *service.RootService
	PrincipalService  *service.PrincipalService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	accountRepository := repository.NewAccountRepository(database)
	channelRepository := repository.NewChannelRepository(database)
	attachRepository := repository.NewAttachRepository(database)
	permRuleRepository := repository.NewPermRuleRepository(database)
	groupRepository := repository.NewGroupRepository(database)

	// Storage
	blobStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	identityService := service.NewIdentityService(
		accountRepository,
		channelRepository,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.IsProduction(),
	)
	permissionService := service.NewPermissionService(channelRepository, permRuleRepository, groupRepository)
	treeService := service.NewTreeService(
		channelRepository,
		accountRepository,
		attachRepository,
		permissionService,
		blobStorage,
		cfg.MaxFileSize,
		cfg.AccountQuota,
	)
	rootService := service.NewRootService(channelRepository, permissionService, treeService, cfg.BlockPublic)
	principalService := service.NewPrincipalService(channelRepository, groupRepository)

	return &App{
		Cfg:               cfg,
		DB:                database,
		ChannelRepository: channelRepository,
		IdentityService:   identityService,
		PermissionService: permissionService,
		TreeService:       treeService,
		RootService:       rootService,
		PrincipalService:  principalService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
