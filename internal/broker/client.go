// Package broker resolves prices through the Tinkoff Invest API.
package broker

import (
	"context"
	"fmt"

	"github.com/russianinvestments/invest-api-go-sdk/investgo"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/logger"
)

const (
	sandboxEndpoint = "sandbox-invest-public-api.tinkoff.ru:443"
	liveEndpoint    = "invest-public-api.tinkoff.ru:443"
)

type BrokerClient struct {
	Client *investgo.Client
	Config config.TinkoffConfig
	Logger *logger.Logger
}

func NewBrokerClient(ctx context.Context, cfg config.TinkoffConfig, log *logger.Logger) (*BrokerClient, error) {
	endpoint := liveEndpoint
	if cfg.Sandbox {
		endpoint = sandboxEndpoint
	}

	investCfg := investgo.Config{
		EndPoint:  endpoint,
		Token:     cfg.Token,
		AccountId: cfg.AccountID,
		AppName:   "alphastream",
	}

	client, err := investgo.NewClient(ctx, investCfg, log)
	if err != nil {
		return nil, fmt.Errorf("create investgo client: %w", err)
	}

	return &BrokerClient{
		Client: client,
		Config: cfg,
		Logger: log,
	}, nil
}

func (bc *BrokerClient) Name() string {
	return "tinkoff"
}

func (bc *BrokerClient) Stop() error {
	return bc.Client.Stop()
}
