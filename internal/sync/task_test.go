package sync

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satu-amo-bridge/internal/amocrm"
	apperrors "satu-amo-bridge/internal/common/errors"
	"satu-amo-bridge/internal/common/logger"
	"satu-amo-bridge/internal/credentials"
	"satu-amo-bridge/internal/satu"
)

// ==========================
// Fakes
// ==========================

type fakeStore struct {
	tenants []credentials.Credential
	err     error
}

func (f *fakeStore) ListWithSecrets(ctx context.Context) ([]credentials.Credential, error) {
	return f.tenants, f.err
}

type fetchCall struct {
	apiURL string
	token  string
	since  string
}

type fakeFetcher struct {
	calls   []fetchCall
	results map[string][]satu.Order // keyed by token
	errs    map[string]error        // keyed by token
}

func (f *fakeFetcher) ListPendingOrders(ctx context.Context, apiURL, token, since string) ([]satu.Order, error) {
	f.calls = append(f.calls, fetchCall{apiURL: apiURL, token: token, since: since})
	if err := f.errs[token]; err != nil {
		return nil, err
	}
	return f.results[token], nil
}

type submitCall struct {
	acct  amocrm.Account
	leads []amocrm.LeadPayload
}

type fakeSubmitter struct {
	calls []submitCall
	err   error
}

func (f *fakeSubmitter) CreateComplexLeads(ctx context.Context, acct amocrm.Account, leads []amocrm.LeadPayload) (json.RawMessage, error) {
	f.calls = append(f.calls, submitCall{acct: acct, leads: leads})
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"_embedded":{"leads":[]}}`), nil
}

// ==========================
// Helpers
// ==========================

func testTenant(id int64, token string) credentials.Credential {
	return credentials.Credential{
		ID:             id,
		SourceAPIURL:   "https://my.satu.kz/api/v1/orders/list",
		SourceAPIToken: token,
		DestAPIURL:     "https://tenant" + token + ".amocrm.ru",
		DestAPIToken:   "amo-" + token,
		PipelineID:     42,
		FieldIDs:       testFieldIDs,
	}
}

type taskFixture struct {
	task    *Task
	fetcher *fakeFetcher
	dest    *fakeSubmitter
	events  *EventLog
	srv     *miniredis.Miniredis
	now     time.Time
}

func newTaskFixture(t *testing.T, tenants []credentials.Credential, fetcher *fakeFetcher, dest *fakeSubmitter) *taskFixture {
	t.Helper()

	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })

	events := NewEventLog(filepath.Join(t.TempDir(), "event_log.txt"))
	now := time.Date(2024, 11, 5, 15, 0, 0, 0, time.Local)

	task := NewTask(TaskDependencies{
		Store:      &fakeStore{tenants: tenants},
		Source:     fetcher,
		Dest:       dest,
		Checkpoint: NewTracker(rdb, testCheckpointKey),
		Events:     events,
		Logger:     logger.NewTestLogger(t),
		Clock:      func() time.Time { return now },
	})

	return &taskFixture{task: task, fetcher: fetcher, dest: dest, events: events, srv: srv, now: now}
}

// ==========================
// Tests
// ==========================

func TestRun_ForwardsOrdersAsLeads(t *testing.T) {
	fetcher := &fakeFetcher{
		results: map[string][]satu.Order{
			"t1": {validOrder(), validOrder()},
		},
	}
	dest := &fakeSubmitter{}
	fx := newTaskFixture(t, []credentials.Credential{testTenant(1, "t1")}, fetcher, dest)
	fx.srv.Set(testCheckpointKey, "2024.11.05T14:00")

	require.NoError(t, fx.task.Run(context.Background()))

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "2024.11.05T14:00", fetcher.calls[0].since)
	assert.Equal(t, "t1", fetcher.calls[0].token)

	require.Len(t, dest.calls, 1)
	assert.Equal(t, "https://tenantt1.amocrm.ru", dest.calls[0].acct.BaseURL)
	assert.Len(t, dest.calls[0].leads, 2)

	text, err := fx.events.Read()
	require.NoError(t, err)
	assert.Equal(t, "2024.11.05T15:00 -- Loaded 2\n", text)
}

func TestRun_AdvancesCheckpointBeforeFetch(t *testing.T) {
	// The checkpoint must reflect the cycle start even when the fetch
	// fails: the orders of that window are dropped, not retried.
	fetcher := &fakeFetcher{
		errs: map[string]error{"t1": apperrors.NewUpstreamError("satu", 500, "boom")},
	}
	fx := newTaskFixture(t, []credentials.Credential{testTenant(1, "t1")}, fetcher, &fakeSubmitter{})
	fx.srv.Set(testCheckpointKey, "2024.11.05T14:00")

	err := fx.task.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUpstreamRequestFailed))

	stored, srvErr := fx.srv.Get(testCheckpointKey)
	require.NoError(t, srvErr)
	assert.Equal(t, "2024.11.05T15:00", stored)
}

func TestRun_UpstreamErrorAbortsWholeCycle(t *testing.T) {
	fetcher := &fakeFetcher{
		errs: map[string]error{"t1": apperrors.NewUpstreamError("satu", 502, "bad gateway")},
		results: map[string][]satu.Order{
			"t2": {validOrder()},
		},
	}
	dest := &fakeSubmitter{}
	fx := newTaskFixture(t, []credentials.Credential{testTenant(1, "t1"), testTenant(2, "t2")}, fetcher, dest)

	err := fx.task.Run(context.Background())
	require.Error(t, err)

	// Tenant 2 was never polled and nothing was submitted.
	assert.Len(t, fetcher.calls, 1)
	assert.Empty(t, dest.calls)
}

func TestRun_EmptyBatchEndsCycleEarly(t *testing.T) {
	// Regression guard: an empty orders array for the first tenant ends
	// the whole cycle, skipping the tenants after it.
	fetcher := &fakeFetcher{
		results: map[string][]satu.Order{
			"t1": {},
			"t2": {validOrder()},
		},
	}
	dest := &fakeSubmitter{}
	fx := newTaskFixture(t, []credentials.Credential{testTenant(1, "t1"), testTenant(2, "t2")}, fetcher, dest)

	require.NoError(t, fx.task.Run(context.Background()))

	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, "t1", fetcher.calls[0].token)
	assert.Empty(t, dest.calls)

	text, err := fx.events.Read()
	require.NoError(t, err)
	assert.Equal(t, "2024.11.05T15:00 -- Loaded 0\n", text)
}

func TestRun_MalformedOrderIsSkippedNotFatal(t *testing.T) {
	badOrder := validOrder()
	badOrder.Price = "нет цены"
	fetcher := &fakeFetcher{
		results: map[string][]satu.Order{
			"t1": {badOrder, validOrder()},
		},
	}
	dest := &fakeSubmitter{}
	fx := newTaskFixture(t, []credentials.Credential{testTenant(1, "t1")}, fetcher, dest)

	require.NoError(t, fx.task.Run(context.Background()))

	require.Len(t, dest.calls, 1)
	assert.Len(t, dest.calls[0].leads, 1)

	text, err := fx.events.Read()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(text, "-- Loaded 1\n"))
}

func TestRun_SubmitErrorAbortsCycle(t *testing.T) {
	fetcher := &fakeFetcher{
		results: map[string][]satu.Order{
			"t1": {validOrder()},
		},
	}
	dest := &fakeSubmitter{err: apperrors.NewUpstreamError("amocrm", 401, "unauthorized")}
	fx := newTaskFixture(t, []credentials.Credential{testTenant(1, "t1"), testTenant(2, "t2")}, fetcher, dest)

	err := fx.task.Run(context.Background())
	require.Error(t, err)
	assert.Len(t, fetcher.calls, 1)
}

func TestRun_NoTenantsIsANoOp(t *testing.T) {
	fetcher := &fakeFetcher{}
	fx := newTaskFixture(t, nil, fetcher, &fakeSubmitter{})

	require.NoError(t, fx.task.Run(context.Background()))
	assert.Empty(t, fetcher.calls)
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "acme", projectName("https://acme.amocrm.ru"))
	assert.Equal(t, "not-a-url", projectName("not-a-url"))
}
