package state

import (
	"who-is-spy-offline/internal/config"
	"who-is-spy-offline/internal/service"
	"who-is-spy-offline/internal/service/words"
)

type AppState struct {
	Cfg        *config.AppConfig
	Bank       *words.Bank
	SessionSvc *service.SessionService
}

func NewAppState(
	cfg *config.AppConfig,
	bank *words.Bank,
	sessionSvc *service.SessionService,
) *AppState {
	return &AppState{
		Cfg:        cfg,
		Bank:       bank,
		SessionSvc: sessionSvc,
	}
}
