package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Manager 链连接与托管账户
type Manager struct {
	client *ethclient.Client
	key    *ecdsa.PrivateKey
	escrow common.Address
	config config.ChainConfig
}

// NewManager 连接节点并加载托管账户私钥
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	key, err := ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	client, err := dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		client: client,
		key:    key,
		escrow: crypto.PubkeyToAddress(key.PublicKey),
		config: cfg,
	}
	logger.Info("Chain manager initialized (chain id: %d, escrow: %s)", cfg.ChainId, m.escrow.Hex())
	return m, nil
}

// ParsePrivateKey 解析十六进制私钥，允许 0x 前缀
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// dial 创建客户端并检查连接与链ID
func dial(ctx context.Context, cfg config.ChainConfig) (*ethclient.Client, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	logger.Info("Creating chain client connection (RPC: %s)", cfg.RpcUrl)
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if _, err := client.BlockNumber(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed: %w", err)
	}

	if cfg.ChainId != 0 {
		chainID, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
		if chainID.Int64() != cfg.ChainId {
			client.Close()
			return nil, fmt.Errorf("chain id mismatch: configured %d, node reports %s", cfg.ChainId, chainID)
		}
	}
	return client, nil
}

// EscrowAddress 托管账户地址
func (m *Manager) EscrowAddress() common.Address {
	return m.escrow
}

// GetClient 获取客户端
func (m *Manager) GetClient() *ethclient.Client {
	return m.client
}

// Token 以托管账户身份绑定稳定币合约
func (m *Manager) Token(ctx context.Context) (*ERC20Token, error) {
	chainID, err := m.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	return NewERC20Token(m.client, TokenOptions{
		Address:   common.HexToAddress(m.config.TokenAddress),
		Key:       m.key,
		ChainID:   chainID,
		GasLimit:  m.config.GasLimit,
		TxTimeout: m.config.TxTimeout(),
	})
}

// GetHealthStatus 获取健康状态
func (m *Manager) GetHealthStatus(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"chain_id":      m.config.ChainId,
		"escrow":        m.escrow.Hex(),
		"token":         m.config.TokenAddress,
		"client_status": "connected",
	}
	if block, err := m.client.BlockNumber(ctx); err != nil {
		health["client_status"] = "disconnected"
	} else {
		health["block_number"] = block
	}
	return health
}

// Close 关闭管理器
func (m *Manager) Close() error {
	if m.client != nil {
		m.client.Close()
	}
	logger.Info("Chain manager closed")
	return nil
}
