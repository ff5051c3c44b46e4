package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/Joshua-Coded/rootrise-ledger/internal/config"
	"github.com/Joshua-Coded/rootrise-ledger/internal/event"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/logic"
	"github.com/Joshua-Coded/rootrise-ledger/internal/metrics"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"github.com/Joshua-Coded/rootrise-ledger/internal/repository"
	"github.com/Joshua-Coded/rootrise-ledger/internal/token"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	escrow   = common.HexToAddress("0x00000000000000000000000000000000000000e5")
	safe     = common.HexToAddress("0x000000000000000000000000000000000000005a")
	farmer   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	alice    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	official = common.HexToAddress("0x0000000000000000000000000000000000000090")
	stranger = common.HexToAddress("0x0000000000000000000000000000000000000bad")
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetDefaultLogger(logger.NewNop())
}

type apiFixture struct {
	t       *testing.T
	router  *gin.Engine
	engine  *logic.Engine
	ledger  *token.MemoryLedger
	metrics *metrics.PrometheusMetrics
	now     time.Time
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, err := repository.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")))
	require.NoError(t, err)
	dispatcher := event.NewDispatcher(db, event.NewProcessorManager(), 0, event.WithDispatcherLogger(logger.NewNop()))

	f := &apiFixture{
		t:       t,
		ledger:  token.NewMemoryLedger(),
		metrics: metrics.NewPrometheusMetrics("rootrise_test"),
		now:     time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC),
	}

	settings := logic.DefaultSettings()
	settings.EscrowAddress = escrow
	settings.SafeAddress = safe
	settings.MinimumContribution = 10
	engine, err := logic.NewEngine(admin, f.ledger.Bind(escrow), settings,
		logic.WithClock(func() time.Time { return f.now }),
		logic.WithLogger(logger.NewNop()),
		logic.WithMetrics(f.metrics),
		logic.WithSink(logic.SinkFunc(func(events []model.Event) {
			for _, ev := range events {
				assert.NoError(t, dispatcher.Handle(ev))
			}
		})),
	)
	require.NoError(t, err)
	require.NoError(t, engine.AddGovernmentOfficial(context.Background(), admin, official))
	f.engine = engine

	cfg := &config.Config{Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"}}
	f.router = Setup(engine, repository.NewRepository(db), cfg, Options{
		Metrics: f.metrics.Handler(),
		Chain: func(context.Context) map[string]interface{} {
			return map[string]interface{}{"token": "memory"}
		},
	})
	return f
}

func (f *apiFixture) do(method, path string, caller *common.Address, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req.Header.Set("X-Caller-Address", caller.Hex())
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// call 发送请求并断言状态码，返回响应信封
func (f *apiFixture) call(method, path string, caller *common.Address, body interface{}, status int) envelope {
	f.t.Helper()
	w := f.do(method, path, caller, body)
	require.Equal(f.t, status, w.Code, w.Body.String())
	var env envelope
	require.NoError(f.t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func (f *apiFixture) fund(account common.Address, amount uint64) {
	require.NoError(f.t, f.ledger.Mint(account, amount))
	f.ledger.Approve(account, escrow, amount)
}

func decode(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func addr(a common.Address) *common.Address { return &a }

// approvedFarmerProject 走完申请审核流程并创建一个已上线项目
func (f *apiFixture) approvedFarmerProject(goal uint64, days uint32) uint64 {
	f.t.Helper()
	f.call(http.MethodPost, "/api/v1/farmer-applications", addr(farmer),
		gin.H{"evidenceReference": "ipfs://deed", "payoutReference": "bank:1"}, http.StatusCreated)
	f.call(http.MethodPost, "/api/v1/farmer-applications/"+farmer.Hex()+"/approve", addr(admin), nil, http.StatusOK)

	env := f.call(http.MethodPost, "/api/v1/projects", addr(farmer),
		gin.H{"title": "Cocoa", "fundingGoal": goal, "durationInDays": days}, http.StatusCreated)
	var view struct {
		ID     uint64 `json:"id"`
		Status string `json:"status"`
	}
	decode(f.t, env.Data, &view)
	assert.Equal(f.t, string(model.ProjectStatusSubmitted), view.Status)

	f.call(http.MethodPost, "/api/v1/projects/"+itoa(view.ID)+"/approve", addr(official), nil, http.StatusOK)
	return view.ID
}

func itoa(n uint64) string {
	return strconv.FormatUint(n, 10)
}
