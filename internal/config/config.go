package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres 或 sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径，":memory:" 为内存库
}

// DSN postgres 连接串
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// ChainConfig 稳定币所在链的配置，engine.token 为 erc20 时使用
type ChainConfig struct {
	ChainId       int64  `mapstructure:"chain_id"`       // 链ID
	RpcUrl        string `mapstructure:"rpc_url"`        // RPC节点URL
	PrivateKey    string `mapstructure:"private_key"`    // 托管账户私钥
	TokenAddress  string `mapstructure:"token_address"`  // 稳定币合约地址
	GasLimit      uint64 `mapstructure:"gas_limit"`      // 0 为自动估算
	TxTimeoutSecs int    `mapstructure:"tx_timeout_secs"` // 等待交易上链的超时
}

// TxTimeout 等待交易上链的超时
func (c ChainConfig) TxTimeout() time.Duration {
	return time.Duration(c.TxTimeoutSecs) * time.Second
}

// EngineConfig 账本引擎参数
type EngineConfig struct {
	SuperAdmin              string `mapstructure:"super_admin"`
	EscrowAddress           string `mapstructure:"escrow_address"` // erc20 模式下由私钥推导
	SafeAddress             string `mapstructure:"safe_address"`
	MinimumContribution     uint64 `mapstructure:"minimum_contribution"`
	MaximumDurationDays     uint32 `mapstructure:"maximum_duration_days"`
	MaximumFundingGoal      uint64 `mapstructure:"maximum_funding_goal"`
	ReleaseRequiresDeadline bool   `mapstructure:"release_requires_deadline"`
	CloseRequiresAdmin      bool   `mapstructure:"close_requires_admin"`
	FarmerWorkflow          string `mapstructure:"farmer_workflow"` // application 或 whitelist
	Token                   string `mapstructure:"token"`           // memory 或 erc20
	Operator                string `mapstructure:"operator"`        // 定时任务使用的调用身份
}

// Settings 转换为引擎参数，escrow 为托管账户地址
func (e EngineConfig) Settings(escrow common.Address) logic.Settings {
	settings := logic.DefaultSettings()
	settings.EscrowAddress = escrow
	settings.SafeAddress = addressOrZero(e.SafeAddress)
	settings.MinimumContribution = e.MinimumContribution
	settings.MaximumDurationDays = e.MaximumDurationDays
	settings.MaximumFundingGoal = e.MaximumFundingGoal
	settings.ReleaseRequiresDeadline = e.ReleaseRequiresDeadline
	settings.CloseRequiresAdmin = e.CloseRequiresAdmin
	settings.RequireApplication = e.FarmerWorkflow != WorkflowWhitelist
	return settings
}

const (
	WorkflowApplication = "application"
	WorkflowWhitelist   = "whitelist"

	TokenMemory = "memory"
	TokenERC20  = "erc20"
)

type TaskConfig struct {
	Interval    int  `mapstructure:"interval"`     // 秒
	Workers     int  `mapstructure:"workers"`      // 退款协程池大小
	BatchSize   int  `mapstructure:"batch_size"`   // 每轮处理的项目数
	AutoRelease bool `mapstructure:"auto_release"` // 是否自动放款
	Snapshots   int  `mapstructure:"snapshots"`    // 保留的引擎快照数量
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// Load 读取配置。path 为空时按默认目录查找 config.yaml，文件不存在时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/rootrise")
	}

	setDefaults(v)

	// 自动读取环境变量，例如 ROOTRISE_ENGINE_SUPER_ADMIN
	v.SetEnvPrefix("ROOTRISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "rootrise")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "rootrise.db")
	v.SetDefault("chain.gas_limit", 0)
	v.SetDefault("chain.tx_timeout_secs", 120)

	defaults := logic.DefaultSettings()
	v.SetDefault("engine.super_admin", "")
	v.SetDefault("engine.escrow_address", "")
	v.SetDefault("engine.safe_address", "")
	v.SetDefault("engine.operator", "")
	v.SetDefault("engine.minimum_contribution", defaults.MinimumContribution)
	v.SetDefault("engine.maximum_duration_days", defaults.MaximumDurationDays)
	v.SetDefault("engine.maximum_funding_goal", defaults.MaximumFundingGoal)
	v.SetDefault("engine.release_requires_deadline", false)
	v.SetDefault("engine.close_requires_admin", false)
	v.SetDefault("engine.farmer_workflow", WorkflowApplication)
	v.SetDefault("engine.token", TokenMemory)

	v.SetDefault("task.interval", 60)
	v.SetDefault("task.workers", 8)
	v.SetDefault("task.batch_size", 100)
	v.SetDefault("task.auto_release", false)
	v.SetDefault("task.snapshots", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "rootrise")
	v.SetDefault("metrics.path", "/metrics")
}

// Validate 校验配置
func (c *Config) Validate() error {
	if !isAddress(c.Engine.SuperAdmin) {
		return fmt.Errorf("engine.super_admin must be a hex address, got %q", c.Engine.SuperAdmin)
	}
	for key, value := range map[string]string{
		"engine.escrow_address": c.Engine.EscrowAddress,
		"engine.safe_address":   c.Engine.SafeAddress,
		"engine.operator":       c.Engine.Operator,
	} {
		if value != "" && !isAddress(value) {
			return fmt.Errorf("%s must be a hex address, got %q", key, value)
		}
	}

	switch c.Engine.FarmerWorkflow {
	case WorkflowApplication, WorkflowWhitelist:
	default:
		return fmt.Errorf("engine.farmer_workflow must be %s or %s, got %q", WorkflowApplication, WorkflowWhitelist, c.Engine.FarmerWorkflow)
	}

	switch c.Engine.Token {
	case TokenMemory:
		if c.Engine.EscrowAddress == "" {
			return fmt.Errorf("engine.escrow_address is required for the memory token")
		}
	case TokenERC20:
		if c.Chain.RpcUrl == "" || c.Chain.PrivateKey == "" {
			return fmt.Errorf("chain.rpc_url and chain.private_key are required for the erc20 token")
		}
		if !isAddress(c.Chain.TokenAddress) {
			return fmt.Errorf("chain.token_address must be a hex address, got %q", c.Chain.TokenAddress)
		}
	default:
		return fmt.Errorf("engine.token must be %s or %s, got %q", TokenMemory, TokenERC20, c.Engine.Token)
	}

	if c.Engine.MinimumContribution == 0 || c.Engine.MaximumDurationDays == 0 || c.Engine.MaximumFundingGoal == 0 {
		return fmt.Errorf("engine limits must be positive")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}

	if c.Task.Interval <= 0 || c.Task.Workers <= 0 || c.Task.BatchSize <= 0 || c.Task.Snapshots <= 0 {
		return fmt.Errorf("task.interval, task.workers, task.batch_size and task.snapshots must be positive")
	}
	return nil
}

// OperatorAddress 定时任务的调用身份，未配置时使用 super_admin
func (c *Config) OperatorAddress() common.Address {
	if c.Engine.Operator != "" {
		return common.HexToAddress(c.Engine.Operator)
	}
	return common.HexToAddress(c.Engine.SuperAdmin)
}

func isAddress(s string) bool {
	return common.IsHexAddress(s) && common.HexToAddress(s) != (common.Address{})
}

func addressOrZero(s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	return common.HexToAddress(s)
}
