package main

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/indie-market/internal/config"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/database"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/delivery"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/kvstore"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/logging"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/services"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/session"
	"github.com/ahmetcoskunkizilkaya/indie-market/internal/store"
	"github.com/spf13/cobra"
)

// runtime holds what every subcommand needs. It is filled in by the root
// command's pre-run hook.
type runtime struct {
	cfg           *config.Config
	backend       kvstore.Backend
	store         *store.Store
	notifier      *services.Notifier
	moderation    *services.ModerationService
	subscriptions *services.SubscriptionService
}

func newRootCmd() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:          "marketctl",
		Short:        "Inspect and moderate the Indie Market store",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.close()
		},
	}

	root.AddCommand(
		appsCmd(rt),
		decisionCmd(rt, "approve"),
		decisionCmd(rt, "reject"),
		tierCmd(rt),
		resetCmd(rt),
		statsCmd(rt),
	)
	return root
}

func (rt *runtime) open(cmd *cobra.Command) error {
	rt.cfg = config.Load()
	slog.SetDefault(logging.New(cmd.ErrOrStderr(), rt.cfg.LogLevel))

	if rt.cfg.StoreDriver == "postgres" || rt.cfg.StoreDriver == "sqlite" {
		if err := database.Connect(rt.cfg); err != nil {
			return err
		}
		if err := database.Migrate(database.DB); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	backend, err := kvstore.FromConfig(ctx, rt.cfg, database.DB)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, backend, store.Options{})
	if err != nil {
		_ = backend.Close()
		return err
	}

	rt.backend = backend
	rt.store = st
	rt.notifier = services.NewNotifier(delivery.NewMailer(rt.cfg))
	rt.moderation = services.NewModerationService(st, rt.notifier, 0)
	rt.subscriptions = services.NewSubscriptionService(st, session.NewManager(backend, nil), rt.cfg.PremiumEntitlementID)
	return nil
}

func (rt *runtime) close() error {
	if rt.notifier != nil {
		rt.notifier.Wait()
	}
	var errs []error
	if rt.backend != nil {
		errs = append(errs, rt.backend.Close())
	}
	errs = append(errs, database.Close())
	return errors.Join(errs...)
}
