// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

/*
Package supervisor runs the long-lived JazzMate services under suture v4.

	RootSupervisor ("jazzmate")
	├── DataSupervisor ("data-layer")
	│   └── LedgerRetryService (if ledger.retry_enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with backoff. Supervisor events are logged
through sutureslog into the zerolog-backed slog logger from
logging.NewSlogLogger.

Usage in the serve command:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(services.NewLedgerRetryService(led, idx, cfg.Ledger.MaxRetries, cfg.Ledger.RetryInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
