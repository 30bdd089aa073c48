package neo4j

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaNet/pkg/errors"
)

type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) VerifyConnectivity(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) NewSession(ctx context.Context, config neo4j.SessionConfig) session {
	return m.Called(ctx, config).Get(0).(session)
}

func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockSession hands its tx to every unit of work.
type MockSession struct {
	mock.Mock
	tx Transaction
}

func (m *MockSession) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	m.Called(ctx)
	return work(m.tx)
}

func (m *MockSession) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	m.Called(ctx)
	return work(m.tx)
}

func (m *MockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Run(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	args := m.Called(ctx, cypher, params)
	res, _ := args.Get(0).(Result)
	return res, args.Error(1)
}

type sliceResult struct {
	records []*neo4j.Record
	pos     int
	err     error
}

func (r *sliceResult) Next(context.Context) bool {
	if r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceResult) Record() *neo4j.Record { return r.records[r.pos-1] }

func (r *sliceResult) Err() error { return r.err }

func newTestDriver(t *testing.T) (*Driver, *MockDriver, *MockSession, *MockTransaction) {
	t.Helper()
	tx := new(MockTransaction)
	sess := &MockSession{tx: tx}
	md := new(MockDriver)
	return newDriver(md, "", logging.NewNopLogger()), md, sess, tx
}

func TestDriver_HealthCheck(t *testing.T) {
	d, md, sess, tx := newTestDriver(t)
	md.On("VerifyConnectivity", mock.Anything).Return(nil)
	md.On("NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "neo4j", AccessMode: neo4j.AccessModeRead}).Return(sess)
	sess.On("ExecuteRead", mock.Anything).Return()
	sess.On("Close", mock.Anything).Return(nil)
	tx.On("Run", mock.Anything, "RETURN 1 AS ok", map[string]any(nil)).Return(&sliceResult{}, nil)

	require.NoError(t, d.HealthCheck(context.Background()))
	md.AssertExpectations(t)
	sess.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestDriver_HealthCheckConnectivityFailure(t *testing.T) {
	d, md, _, _ := newTestDriver(t)
	md.On("VerifyConnectivity", mock.Anything).Return(stderrors.New("connection refused"))

	err := d.HealthCheck(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
	md.AssertNotCalled(t, "NewSession", mock.Anything, mock.Anything)
}

func TestDriver_ExecuteWriteUsesWriteSession(t *testing.T) {
	d, md, sess, _ := newTestDriver(t)
	d.database = "metanet"
	md.On("NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "metanet", AccessMode: neo4j.AccessModeWrite}).Return(sess)
	sess.On("ExecuteWrite", mock.Anything).Return()
	sess.On("Close", mock.Anything).Return(nil)

	out, err := d.ExecuteWrite(context.Background(), func(Transaction) (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, out)
	sess.AssertNumberOfCalls(t, "Close", 1)
}

func TestDriver_ExecuteKeepsInnerErrorCode(t *testing.T) {
	d, md, sess, _ := newTestDriver(t)
	md.On("NewSession", mock.Anything, mock.Anything).Return(sess)
	sess.On("ExecuteRead", mock.Anything).Return()
	sess.On("Close", mock.Anything).Return(stderrors.New("already closed"))

	_, err := d.ExecuteRead(context.Background(), func(Transaction) (any, error) {
		return nil, errors.New(errors.ErrCodeSerialization, "bad record")
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSerialization, errors.GetCode(err))
}

func TestDriver_CloseOnce(t *testing.T) {
	d, md, _, _ := newTestDriver(t)
	md.On("Close", mock.Anything).Return(nil).Once()

	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))
	md.AssertNumberOfCalls(t, "Close", 1)
}

func TestNewDriver_RequiresURI(t *testing.T) {
	_, err := NewDriver(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCollectRecords(t *testing.T) {
	res := &sliceResult{records: []*neo4j.Record{
		{Keys: []string{"id"}, Values: []any{int64(1)}},
		{Keys: []string{"id"}, Values: []any{int64(2)}},
	}}
	ids, err := CollectRecords(context.Background(), res, func(rec *neo4j.Record) (int64, error) {
		v, _ := rec.Get("id")
		return v.(int64), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	failing := &sliceResult{err: stderrors.New("stream broken")}
	_, err = CollectRecords(context.Background(), failing, func(*neo4j.Record) (int64, error) { return 0, nil })
	assert.EqualError(t, err, "stream broken")
}
