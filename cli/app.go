package cli

import (
	"github.com/pavi2410/droidkit/adb"
	"github.com/pavi2410/droidkit/config"
	"github.com/pavi2410/droidkit/discovery"
	"github.com/pavi2410/droidkit/pairing"
	"github.com/pavi2410/droidkit/service"
	"github.com/pavi2410/droidkit/store"
	"go.uber.org/zap"
)

// app holds the components one command needs.
type app struct {
	store *store.Store
	dm    *service.DeviceManager
}

// newApp wires the device stack from cfg. The paired-device registry is
// opened only when withStore is set; broadcaster may be nil.
func newApp(cfg *config.Config, logger *zap.Logger, withStore bool, broadcaster service.WebSocketBroadcaster) (*app, error) {
	runner := adb.NewExecRunner(cfg.ADB.Path, cfg.ADB.CommandTimeout, logger)
	client := adb.NewClient(runner, cfg.ADB.ConnectTimeout, logger)

	disc := discovery.NewService(discovery.NewMDNSListener(logger), discovery.Options{
		Window:          cfg.Discovery.Window,
		PollInterval:    cfg.Discovery.PollInterval,
		ProvisionalPort: cfg.Pairing.ProvisionalPort,
		ConnectionPort:  cfg.Pairing.DefaultPort,
	}, logger)

	workflow := pairing.NewWorkflow(client, service.NetworkConnector(client), disc, pairing.Config{
		DefaultPort:    cfg.Pairing.DefaultPort,
		CandidatePorts: cfg.Pairing.CandidatePorts,
	}, logger)

	a := &app{}
	if withStore {
		st, err := store.Open(cfg.Database.Path, logger)
		if err != nil {
			return nil, err
		}
		a.store = st
	}

	a.dm = service.NewDeviceManager(client, disc, workflow, a.store, broadcaster, service.ManagerOptions{
		ReconnectAttempts: cfg.ADB.ReconnectAttempts,
		ReconnectDelay:    cfg.ADB.ReconnectDelay,
		DownloadDir:       cfg.Files.DownloadDir,
	}, logger)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// openApp builds the app for a command from the loaded configuration.
func openApp(withStore bool) (*app, error) {
	if err := requireConfig(); err != nil {
		return nil, err
	}
	return newApp(cfg, logger, withStore, nil)
}
