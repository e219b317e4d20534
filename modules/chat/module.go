package chat

import (
	"github.com/chathub-dev/chathub/modules/chat/handlers"
	"github.com/chathub-dev/chathub/modules/chat/infrastructure/persistence"
	"github.com/chathub-dev/chathub/modules/chat/presentation/controllers"
	"github.com/chathub-dev/chathub/modules/chat/services"
	"github.com/chathub-dev/chathub/pkg/application"
	"github.com/chathub-dev/chathub/pkg/configuration"
	"github.com/chathub-dev/chathub/pkg/pglistener"
)

type ModuleOptions struct {
	// Listener is the shared change listener the stream controller probes
	// and triggers test notifications through.
	Listener *pglistener.Listener
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{listener: opts.Listener}
}

type Module struct {
	listener *pglistener.Listener
}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()

	userRepo := persistence.NewUserRepository()
	groupRepo := persistence.NewGroupRepository()
	messageRepo := persistence.NewMessageRepository()

	app.RegisterServices(
		services.NewAuthService(userRepo, conf.Auth.Secret, conf.Auth.TokenDuration),
		services.NewUserService(userRepo, groupRepo, messageRepo),
		services.NewGroupService(groupRepo, messageRepo),
		services.NewMessageService(messageRepo, groupRepo, app.Cache(), conf.MessageCacheTTL),
	)

	app.RegisterControllers(
		controllers.NewAuthController(app),
		controllers.NewUserController(app),
		controllers.NewGroupController(app),
		controllers.NewMessageController(app),
		controllers.NewStreamController(app, m.listener),
	)

	handlers.RegisterMessageEventHandlers(app)

	return nil
}

func (m *Module) Name() string {
	return "chat"
}
