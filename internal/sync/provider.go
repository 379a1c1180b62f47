package sync

import (
	"fmt"
	"net/http"

	"github.com/rafaelduartes/salescope-backend/pkg/config"
	"github.com/rafaelduartes/salescope-backend/pkg/enums"
	pkgerrors "github.com/rafaelduartes/salescope-backend/pkg/errors"
	"github.com/rafaelduartes/salescope-backend/pkg/logger"
	"github.com/rafaelduartes/salescope-backend/pkg/ventra"
)

// ProviderFactory builds a GatewayClient for a gateway brand from a decrypted
// credential. New brands register here and nowhere else.
type ProviderFactory struct {
	ventraCfg config.VentraConfig
	syncCfg   config.SyncConfig
	logg      *logger.Logger
}

// NewProviderFactory wires gateway client construction to runtime config.
func NewProviderFactory(ventraCfg config.VentraConfig, syncCfg config.SyncConfig, logg *logger.Logger) *ProviderFactory {
	return &ProviderFactory{
		ventraCfg: ventraCfg,
		syncCfg:   syncCfg,
		logg:      logg,
	}
}

// ClientFor returns a client for the given brand and bearer credential.
func (f *ProviderFactory) ClientFor(gatewayType enums.GatewayType, credential string) (GatewayClient, error) {
	switch gatewayType {
	case enums.GatewayTypeVentra:
		return ventra.NewClient(
			credential,
			ventra.WithBaseURL(f.ventraCfg.BaseURL),
			ventra.WithHTTPClient(&http.Client{Timeout: f.ventraCfg.HTTPTimeout}),
			ventra.WithPacing(f.syncCfg.PageDelay, f.syncCfg.WindowDelay),
			ventra.WithLogger(f.logg),
		)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported gateway type %q", gatewayType))
	}
}
