package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/common-repository/vatomi/internal/service"
	"github.com/common-repository/vatomi/internal/storage/postgres"
)

var (
	adminLogin    string
	adminEmail    string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrator accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadForCommand()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		str, err := postgres.New(ctx, cfg.DB.DatabaseURL)
		if err != nil {
			log.Error("postgres_connect_failed", slog.String("err", err.Error()))
			return err
		}
		defer str.Close()

		// Транзиенты и маркетплейс для создания администратора не нужны.
		srvc := service.New(str, nil, nil, service.Options{Defaults: cfg.Settings.Typed()})

		user, err := srvc.CreateAdmin(ctx, adminLogin, adminEmail, adminPassword)
		if err != nil {
			return err
		}

		log.Info("admin_created", slog.String("user_id", user.ID.String()), slog.String("login", user.Login))
		fmt.Fprintln(cmd.OutOrStdout(), user.ID.String())
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminLogin, "login", "", "administrator login")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "administrator email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "administrator password (min 8 characters)")
	_ = adminCreateCmd.MarkFlagRequired("login")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
}
