package chain

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	from = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	to   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestERC20ABI_MethodIDs(t *testing.T) {
	parsed, err := ParseERC20ABI()
	require.NoError(t, err)

	tests := map[string]string{
		"transfer":     "0xa9059cbb",
		"transferFrom": "0x23b872dd",
		"balanceOf":    "0x70a08231",
		"allowance":    "0xdd62ed3e",
	}
	for name, id := range tests {
		method, ok := parsed.Methods[name]
		require.True(t, ok, name)
		assert.Equal(t, id, hexutil.Encode(method.ID), name)
	}

	data, err := parsed.Pack("transfer", to, big.NewInt(1000))
	require.NoError(t, err)
	assert.Len(t, data, 4+32*2)
	assert.Equal(t, "0xa9059cbb", hexutil.Encode(data[:4]))
}

func transferLog(t *testing.T, value int64) types.Log {
	t.Helper()
	parsed, err := ParseERC20ABI()
	require.NoError(t, err)
	data, err := parsed.Events["Transfer"].Inputs.NonIndexed().Pack(big.NewInt(value))
	require.NoError(t, err)

	return types.Log{
		Topics: []common.Hash{
			crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)")),
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
		},
		Data: data,
	}
}

func TestParseTransfer(t *testing.T) {
	parsed, err := ParseERC20ABI()
	require.NoError(t, err)

	transfer, ok, err := ParseTransfer(parsed, transferLog(t, 250))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, from, transfer.From)
	assert.Equal(t, to, transfer.To)
	assert.Equal(t, int64(250), transfer.Value.Int64())

	other := transferLog(t, 1)
	other.Topics[0] = crypto.Keccak256Hash([]byte("Approval(address,address,uint256)"))
	_, ok, err = ParseTransfer(parsed, other)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadABI(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "erc20.json")
	require.NoError(t, os.WriteFile(plain, []byte(erc20ABI), 0o600))
	parsed, err := LoadABI(plain)
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "transfer")

	compiled := filepath.Join(dir, "compiled.json")
	require.NoError(t, os.WriteFile(compiled, []byte(`{"contractName":"Token","abi":`+erc20ABI+`}`), 0o600))
	parsed, err = LoadABI(compiled)
	require.NoError(t, err)
	assert.Contains(t, parsed.Events, "Transfer")

	_, err = LoadABI(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestToUint64(t *testing.T) {
	v, err := toUint64(big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	_, err = toUint64(new(big.Int).Lsh(big.NewInt(1), 64))
	assert.Error(t, err)
	_, err = toUint64(big.NewInt(-1))
	assert.Error(t, err)
}

func TestNewERC20Token(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = NewERC20Token(nil, TokenOptions{ChainID: big.NewInt(1)})
	assert.Error(t, err)

	tok, err := NewERC20Token(nil, TokenOptions{Address: to, Key: key, ChainID: big.NewInt(1)})
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), tok.Holder())
}

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := hexutil.Encode(crypto.FromECDSA(key))

	parsed, err := ParsePrivateKey(hexKey)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), crypto.PubkeyToAddress(parsed.PublicKey))

	_, err = ParsePrivateKey("0xnothex")
	assert.Error(t, err)
}
