package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ruteri/storage-router/cmd/flags"
	"github.com/ruteri/storage-router/httpserver"
	"github.com/ruteri/storage-router/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "storage-router",
		Usage: "Serve the content-addressed storage routing API",
		Flags: append([]cli.Flag{
			flags.ListenAddrFlag,
			flags.StorageDriverFlag,
			flags.LogServiceFlagFn("storage-router"),
		}, flags.CommonFlags...),
		Action: func(cCtx *cli.Context) error {
			listenAddr := cCtx.String(flags.ListenAddrFlag.Name)
			driverURIs := cCtx.StringSlice(flags.StorageDriverFlag.Name)

			logger := flags.SetupLogger(cCtx)

			if len(driverURIs) == 0 {
				logger.Error("No storage drivers configured, pass at least one --storage-driver URI")
				return errors.New("no storage drivers configured")
			}

			factory := storage.NewDriverFactory(logger)
			registry, err := factory.RegistryFromURIs(driverURIs)
			if err != nil {
				logger.Error("Failed to initialize storage drivers", "err", err)
				return err
			}

			router := storage.NewRouter(storage.RouterConfig{
				Registry: registry,
				Log:      logger,
			})

			cfg := flags.ConfigureServer(cCtx, logger, listenAddr)

			handler := httpserver.NewHandler(router, logger)
			server, err := httpserver.New(cfg, handler)
			if err != nil {
				logger.Error("Failed to create server", "err", err)
				return err
			}

			logger.Info("Starting server", "listenAddr", listenAddr, "drivers", len(registry.List()))
			server.RunInBackground()

			exit := make(chan os.Signal, 1)
			signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

			<-exit
			logger.Info("Shutdown signal received")

			server.Shutdown()
			logger.Info("Server shutdown complete")

			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
