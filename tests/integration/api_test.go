package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "wallet-ledger/internal/adapter/http/handler"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack: real HTTP layer, middleware,
// handlers and services, backed by in-memory repos (with real locking and
// rollback semantics) and miniredis for rate limiting.

type testApp struct {
	server     *httptest.Server
	redis      *miniredis.Miniredis
	client     *goredis.Client
	walletRepo *inMemoryWalletRepo
	txRepo     *inMemoryTransactionRepo
	ledgerSvc  *service.LedgerServiceImpl
	querySvc   *service.QueryServiceImpl
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithLockTimeout(t, 2*time.Second)
}

func newTestAppWithLockTimeout(t *testing.T, lockTimeout time.Duration) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	transactor := newInMemoryTransactor(lockTimeout)

	log := logger.New("wallet-ledger-test", "error", false)
	ledgerSvc := service.NewLedgerService(walletRepo, txRepo, transactor, log)
	querySvc := service.NewQueryService(walletRepo, txRepo)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		QuerySvc:       querySvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		Logger:         log,
	})

	return &testApp{
		server:     httptest.NewServer(router),
		redis:      mr,
		client:     rdb,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		ledgerSvc:  ledgerSvc,
		querySvc:   querySvc,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.client.Close()
	a.redis.Close()
}

func (a *testApp) postJSON(t *testing.T, path, body string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(a.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return decodeResponse(t, resp)
}

func (a *testApp) get(t *testing.T, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	return decodeResponse(t, resp)
}

func (a *testApp) patchJSON(t *testing.T, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPatch, a.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return decodeResponse(t, resp)
}

func decodeResponse(t *testing.T, resp *http.Response) (int, map[string]interface{}) {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body), "body: %s", raw)
	return resp.StatusCode, body
}

func (a *testApp) createWallet(t *testing.T, label string) string {
	t.Helper()
	code, body := a.postJSON(t, "/api/v1/wallets", fmt.Sprintf(`{"label":%q}`, label))
	require.Equal(t, 201, code)
	return body["data"].(map[string]interface{})["id"].(string)
}

func data(body map[string]interface{}) map[string]interface{} {
	return body["data"].(map[string]interface{})
}

func TestWalletLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "groceries")

	// t1: credit 100
	code, body := app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t1","amount":"100"}`, walletID))
	require.Equal(t, 201, code)
	assert.Equal(t, "t1", data(body)["txid"])

	code, body = app.get(t, "/api/v1/wallets/"+walletID)
	require.Equal(t, 200, code)
	assert.Equal(t, "100", data(body)["balance"])

	// Replaying t1 must conflict, leaving the balance untouched.
	code, body = app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t1","amount":"100"}`, walletID))
	assert.Equal(t, 409, code)
	assert.Equal(t, "TXN_001", body["error_code"])

	// t2: debit 30
	code, _ = app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t2","amount":"-30"}`, walletID))
	require.Equal(t, 201, code)

	code, body = app.get(t, "/api/v1/wallets/"+walletID)
	require.Equal(t, 200, code)
	assert.Equal(t, "70", data(body)["balance"])

	// Deactivate cascades to the history.
	code, body = app.postJSON(t, "/api/v1/wallets/"+walletID+"/deactivate", "")
	require.Equal(t, 200, code)
	assert.Equal(t, false, data(body)["is_active"])
	assert.NotEmpty(t, data(body)["deactivated_at"])

	// Posting after deactivation is rejected.
	code, body = app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t3","amount":"5"}`, walletID))
	assert.Equal(t, 409, code)
	assert.Equal(t, "WAL_002", body["error_code"])

	// History remains searchable, every row inactive, oldest first.
	code, body = app.get(t, "/api/v1/transactions?wallet_ids="+walletID)
	require.Equal(t, 200, code)
	items := data(body)["items"].([]interface{})
	require.Len(t, items, 2)
	first := items[0].(map[string]interface{})
	second := items[1].(map[string]interface{})
	assert.Equal(t, "t1", first["txid"])
	assert.Equal(t, "t2", second["txid"])
	assert.Equal(t, false, first["is_active"])
	assert.Equal(t, false, second["is_active"])

	// Deactivation is idempotent.
	code, body = app.postJSON(t, "/api/v1/wallets/"+walletID+"/deactivate", "")
	require.Equal(t, 200, code)
	assert.Equal(t, false, data(body)["is_active"])
}

func TestCreateWalletWithOpeningBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, body := app.postJSON(t, "/api/v1/wallets",
		`{"label":"savings","initial_balance":"250.75","txid":"tx_opening"}`)
	require.Equal(t, 201, code)
	walletID := data(body)["id"].(string)
	assert.Equal(t, "250.75", data(body)["balance"])

	// The opening balance is a real first transaction.
	code, body = app.get(t, "/api/v1/transactions?wallet_ids="+walletID)
	require.Equal(t, 200, code)
	items := data(body)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "tx_opening", items[0].(map[string]interface{})["txid"])
	assert.Equal(t, "250.75", items[0].(map[string]interface{})["amount"])
}

func TestInsufficientBalanceRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "tight-budget")

	code, _ := app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t1","amount":"10"}`, walletID))
	require.Equal(t, 201, code)

	code, body := app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t2","amount":"-50"}`, walletID))
	assert.Equal(t, 402, code)
	assert.Equal(t, "TXN_003", body["error_code"])

	// The rejected debit left no trace: balance and history are unchanged.
	code, body = app.get(t, "/api/v1/wallets/"+walletID)
	require.Equal(t, 200, code)
	assert.Equal(t, "10", data(body)["balance"])

	code, body = app.get(t, "/api/v1/transactions?wallet_ids="+walletID)
	require.Equal(t, 200, code)
	assert.Len(t, data(body)["items"].([]interface{}), 1)

	// The failed txid is free for reuse.
	code, _ = app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t2","amount":"-5"}`, walletID))
	assert.Equal(t, 201, code)
}

func TestUpdateLabelOnDeactivatedWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "old-name")

	code, _ := app.postJSON(t, "/api/v1/wallets/"+walletID+"/deactivate", "")
	require.Equal(t, 200, code)

	code, body := app.patchJSON(t, "/api/v1/wallets/"+walletID+"/label", `{"label":"archived"}`)
	require.Equal(t, 200, code)
	assert.Equal(t, "archived", data(body)["label"])
	assert.Equal(t, false, data(body)["is_active"])
}

func TestListWallets_FilterAndOrder(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	a := app.createWallet(t, "alpha")
	b := app.createWallet(t, "beta")
	c := app.createWallet(t, "gamma")

	for id, amount := range map[string]string{a: "30", b: "10", c: "20"} {
		code, _ := app.postJSON(t, "/api/v1/transactions",
			fmt.Sprintf(`{"wallet_id":%q,"amount":%q}`, id, amount))
		require.Equal(t, 201, code)
	}

	code, _ := app.postJSON(t, "/api/v1/wallets/"+c+"/deactivate", "")
	require.Equal(t, 200, code)

	// Default order: highest balance first.
	code, body := app.get(t, "/api/v1/wallets")
	require.Equal(t, 200, code)
	items := data(body)["items"].([]interface{})
	require.Len(t, items, 3)
	assert.Equal(t, "alpha", items[0].(map[string]interface{})["label"])

	// Active-only filter.
	code, body = app.get(t, "/api/v1/wallets?is_active=true")
	require.Equal(t, 200, code)
	items = data(body)["items"].([]interface{})
	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotEqual(t, "gamma", it.(map[string]interface{})["label"])
	}

	// Explicit id set.
	code, body = app.get(t, "/api/v1/wallets?ids="+a+","+b+"&ordering=label")
	require.Equal(t, 200, code)
	items = data(body)["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "alpha", items[0].(map[string]interface{})["label"])
	assert.Equal(t, "beta", items[1].(map[string]interface{})["label"])
}

func TestSearchTransactions_UnknownWalletYieldsEmpty(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	code, body := app.get(t, "/api/v1/transactions?wallet_ids=7b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d")
	require.Equal(t, 200, code)
	assert.Equal(t, float64(0), data(body)["total"])
}

func TestGetTransactionByTxID_ActiveOnly(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "groceries")
	code, _ := app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"txid":"t1","amount":"100"}`, walletID))
	require.Equal(t, 201, code)

	code, body := app.get(t, "/api/v1/transactions/t1")
	require.Equal(t, 200, code)
	assert.Equal(t, "t1", data(body)["txid"])

	// A deactivated transaction is no longer addressable by txid.
	code, _ = app.postJSON(t, "/api/v1/wallets/"+walletID+"/deactivate", "")
	require.Equal(t, 200, code)

	code, body = app.get(t, "/api/v1/transactions/t1")
	assert.Equal(t, 404, code)
	assert.Equal(t, "TXN_004", body["error_code"])
}

func TestServerGeneratedTxID(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "groceries")
	code, body := app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"amount":"42"}`, walletID))
	require.Equal(t, 201, code)
	assert.Regexp(t, `^tx_[0-9a-f]{16}$`, data(body)["txid"])
}

func TestZeroAmountRejected(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "groceries")
	code, body := app.postJSON(t, "/api/v1/transactions",
		fmt.Sprintf(`{"wallet_id":%q,"amount":"0"}`, walletID))
	assert.Equal(t, 400, code)
	assert.Equal(t, "TXN_002", body["error_code"])
}

func TestRateLimitHeadersPresent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Post(app.server.URL+"/api/v1/wallets", "application/json",
		bytes.NewBufferString(`{"label":"limited"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 201, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
