package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainnet "github.com/turtacn/MetaNet/internal/domain/network"
	"github.com/turtacn/MetaNet/internal/interfaces/http/middleware"
	"github.com/turtacn/MetaNet/pkg/errors"
	"github.com/turtacn/MetaNet/pkg/types/common"
	networktypes "github.com/turtacn/MetaNet/pkg/types/network"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock Network Service ---

type mockService struct {
	mock.Mock
}

func (m *mockService) ParseFormula(ctx context.Context, req *networktypes.ParseFormulaRequest) (*networktypes.FormulaDTO, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*networktypes.FormulaDTO), args.Error(1)
}

func (m *mockService) CompareFormulas(ctx context.Context, req *networktypes.CompareFormulasRequest) (*networktypes.CompareFormulasResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*networktypes.CompareFormulasResponse), args.Error(1)
}

func (m *mockService) ComputeClosure(ctx context.Context, compartment int, req *networktypes.ClosureRequest) (*networktypes.ClosureResponse, error) {
	args := m.Called(ctx, compartment, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*networktypes.ClosureResponse), args.Error(1)
}

func (m *mockService) CheckBalance(ctx context.Context, reaction int) (*networktypes.BalanceResponse, error) {
	args := m.Called(ctx, reaction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*networktypes.BalanceResponse), args.Error(1)
}

func (m *mockService) CheckAllBalances(ctx context.Context, compartment int) ([]*networktypes.BalanceResponse, error) {
	args := m.Called(ctx, compartment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*networktypes.BalanceResponse), args.Error(1)
}

func (m *mockService) DescribeCompartment(ctx context.Context, id int) (*networktypes.CompartmentResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*networktypes.CompartmentResponse), args.Error(1)
}

func (m *mockService) Load(ctx context.Context, repo domainnet.Repository) (*networktypes.NetworkSummary, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*networktypes.NetworkSummary), args.Error(1)
}

func (m *mockService) Save(ctx context.Context, repo domainnet.Repository) error {
	return m.Called(ctx, repo).Error(0)
}

func (m *mockService) Summary() networktypes.NetworkSummary {
	return m.Called().Get(0).(networktypes.NetworkSummary)
}

func (m *mockService) Health(ctx context.Context) common.HealthReport {
	return m.Called(ctx).Get(0).(common.HealthReport)
}

// --- helpers ---

func newTestRouter(svc *mockService) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	NewFormulaHandler(svc).RegisterRoutes(api)
	NewNetworkHandler(svc).RegisterRoutes(api)
	h := NewHealthHandler("test", svc)
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) common.APIResponse[T] {
	t.Helper()
	var resp common.APIResponse[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- formula ---

func TestParse_Success(t *testing.T) {
	svc := new(mockService)
	svc.On("ParseFormula", mock.Anything, &networktypes.ParseFormulaRequest{Formula: "H2O"}).
		Return(&networktypes.FormulaDTO{Input: "H2O", Canonical: "H2O"}, nil)

	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/formulas/parse", map[string]string{"formula": "H2O"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[networktypes.FormulaDTO](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "H2O", resp.Data.Canonical)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get(middleware.HeaderRequestID))
	svc.AssertExpectations(t)
}

func TestParse_MissingFormula(t *testing.T) {
	svc := new(mockService)
	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/formulas/parse", map[string]string{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, string(errors.ErrCodeBadRequest), resp.Error.Code)
	svc.AssertNotCalled(t, "ParseFormula", mock.Anything, mock.Anything)
}

func TestParse_Malformed(t *testing.T) {
	svc := new(mockService)
	syntax := errors.New(errors.ErrCodeMalformedFormula, "malformed sum formula").WithDetail("remainder \")\"")
	svc.On("ParseFormula", mock.Anything, mock.Anything).Return(nil, syntax)

	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/formulas/parse", map[string]string{"formula": "H2)"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, "FRM_001", resp.Error.Code)
	assert.Equal(t, "malformed sum formula", resp.Error.Message)
	assert.Contains(t, resp.Error.Detail, "remainder")
}

func TestCompare_WrappedDetail(t *testing.T) {
	svc := new(mockService)
	inner := errors.New(errors.ErrCodeMalformedFormula, "malformed sum formula").WithDetail("offset 2")
	svc.On("CompareFormulas", mock.Anything, mock.Anything).
		Return(nil, errors.Wrap(inner, errors.CodeUnknown, "right formula"))

	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/formulas/compare",
		map[string]string{"left": "H2O", "right": "(("})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, "FRM_001", resp.Error.Code)
	assert.Equal(t, "right formula", resp.Error.Message)
	assert.Equal(t, "offset 2", resp.Error.Detail)
}

// --- network ---

func TestClosure_Success(t *testing.T) {
	svc := new(mockService)
	req := &networktypes.ClosureRequest{Seed: []int{4, 5}}
	svc.On("ComputeClosure", mock.Anything, 101, req).
		Return(&networktypes.ClosureResponse{Compartment: 101, Substances: []int{4, 5, 6}}, nil)

	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/compartments/101/closure", req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[networktypes.ClosureResponse](t, w)
	assert.Equal(t, []int{4, 5, 6}, resp.Data.Substances)
	svc.AssertExpectations(t)
}

func TestClosure_EmptyBody(t *testing.T) {
	svc := new(mockService)
	svc.On("ComputeClosure", mock.Anything, 100, &networktypes.ClosureRequest{}).
		Return(&networktypes.ClosureResponse{Compartment: 100}, nil)

	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/compartments/100/closure", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestClosure_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"dangling", errors.New(errors.ErrCodeDanglingReference, "dangling component reference"), http.StatusNotFound, "NET_001"},
		{"kind", errors.New(errors.ErrCodeComponentKind, "component has unexpected kind"), http.StatusBadRequest, "NET_004"},
		{"pass limit", errors.New(errors.ErrCodeClosurePassLimit, "closure pass limit exceeded"), http.StatusUnprocessableEntity, "NET_005"},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError, "COMMON_001"},
		{"database", errors.New(errors.ErrCodeDatabaseError, "secret dsn leaked"), http.StatusInternalServerError, "COMMON_012"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("ComputeClosure", mock.Anything, 7, mock.Anything).Return(nil, tt.err)

			w := do(newTestRouter(svc), http.MethodPost, "/api/v1/compartments/7/closure",
				networktypes.ClosureRequest{Seed: []int{1}})

			assert.Equal(t, tt.status, w.Code)
			resp := decode[any](t, w)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotContains(t, w.Body.String(), "secret")
		})
	}
}

func TestClosure_BadID(t *testing.T) {
	svc := new(mockService)
	w := do(newTestRouter(svc), http.MethodPost, "/api/v1/compartments/cell/closure", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, string(errors.ErrCodeValidation), resp.Error.Code)
}

func TestPathID_NonDecimalRejected(t *testing.T) {
	for _, raw := range []string{"1.5", "0x1F", "1e3", "%20"} {
		svc := new(mockService)
		w := do(newTestRouter(svc), http.MethodGet, "/api/v1/reactions/"+raw+"/balance", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
		svc.AssertNotCalled(t, "CheckBalance", mock.Anything, mock.Anything)
	}
}

func TestPathID_NegativeReachesService(t *testing.T) {
	svc := new(mockService)
	svc.On("CheckBalance", mock.Anything, -3).
		Return(nil, errors.New(errors.ErrCodeDanglingReference, "dangling component reference"))

	w := do(newTestRouter(svc), http.MethodGet, "/api/v1/reactions/-3/balance", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, "NET_001", resp.Error.Code)
	svc.AssertExpectations(t)
}

func TestDescribeCompartment(t *testing.T) {
	svc := new(mockService)
	svc.On("DescribeCompartment", mock.Anything, 101).
		Return(&networktypes.CompartmentResponse{ID: 101, Name: "cytosol"}, nil)

	w := do(newTestRouter(svc), http.MethodGet, "/api/v1/compartments/101", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[networktypes.CompartmentResponse](t, w)
	assert.Equal(t, "cytosol", resp.Data.Name)
}

func TestBalance(t *testing.T) {
	svc := new(mockService)
	svc.On("CheckBalance", mock.Anything, 20).
		Return(&networktypes.BalanceResponse{Reaction: 20, Balanced: true}, nil)
	svc.On("CheckBalance", mock.Anything, 21).
		Return(nil, errors.New(errors.ErrCodeMissingFormula, "substance has no formula"))
	svc.On("CheckAllBalances", mock.Anything, 101).
		Return([]*networktypes.BalanceResponse{{Reaction: 21, Balanced: true}}, nil)
	r := newTestRouter(svc)

	w := do(r, http.MethodGet, "/api/v1/reactions/20/balance", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[networktypes.BalanceResponse](t, w).Data.Balanced)

	w = do(r, http.MethodGet, "/api/v1/reactions/21/balance", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(r, http.MethodGet, "/api/v1/compartments/101/balance", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]networktypes.BalanceResponse](t, w).Data, 1)
}

func TestSummary(t *testing.T) {
	svc := new(mockService)
	svc.On("Summary").Return(networktypes.NetworkSummary{Substances: 9, Reactions: 3, Compartments: 2})

	w := do(newTestRouter(svc), http.MethodGet, "/api/v1/network", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 9, decode[networktypes.NetworkSummary](t, w).Data.Substances)
}

// --- health ---

func TestHealth(t *testing.T) {
	svc := new(mockService)
	svc.On("Health", mock.Anything).Return(common.NewHealthReport(
		common.ComponentHealth{Name: "redis", Status: common.HealthUp})).Once()
	svc.On("Health", mock.Anything).Return(common.NewHealthReport(
		common.ComponentHealth{Name: "redis", Status: common.HealthDown, Message: "refused"})).Once()
	r := newTestRouter(svc)

	w := do(r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alive"`)

	w = do(r, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "refused")
}
