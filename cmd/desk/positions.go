package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"liquidityDesk/internal/addresses"
	"liquidityDesk/internal/config"
	"liquidityDesk/internal/nft"
)

func newPositionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "List position NFTs held by the account",
		RunE:  runPositions,
	}
	addSharedFlags(cmd)
	cmd.Flags().String("nft-api-key", "", "NFT metadata API key")
	cmd.Flags().Int("limit", 0, "maximum positions to list, 0 lists all")
	return cmd
}

func runPositions(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	owner, err := a.account()
	if err != nil {
		return err
	}
	manager, err := a.deployment.Address(addresses.PositionManager)
	if err != nil {
		return err
	}

	client := nft.NewClient(nft.Config{APIKey: cfg.NFTAPIKey}, logger)
	nfts, err := client.AllOwnedNFTs(ctx, nft.Params{
		ChainID:  a.deployment.ChainID,
		Owner:    owner,
		Contract: manager,
	}, limit)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), nfts)
}

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List journaled transactions",
		RunE:  runActivity,
	}
	addSharedFlags(cmd)
	cmd.Flags().Int("limit", 20, "maximum records, 0 lists all")
	return cmd
}

func runActivity(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.journal.LoadActivity(ctx, a.deployment.ChainID, limit)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), records)
}
