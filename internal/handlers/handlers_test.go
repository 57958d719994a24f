package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/handlers"
	"github.com/SscSPs/stack_budget/internal/platform/config"
	"github.com/SscSPs/stack_budget/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const testSecret = "test-secret-key-that-is-long-enough"

type HandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	budget  *MockBudgetService
	sync    *MockSyncService
	refresh *MockRefreshService
	backup  *MockBackupService
	token   string
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.budget = new(MockBudgetService)
	suite.sync = new(MockSyncService)
	suite.refresh = new(MockRefreshService)
	suite.backup = new(MockBackupService)

	cfg := &config.Config{
		APISecret:   testSecret,
		CORSOrigins: []string{"http://localhost:3000"},
	}
	container := &portssvc.ServiceContainer{
		Budget:  suite.budget,
		Sync:    suite.sync,
		Refresh: suite.refresh,
		Backup:  suite.backup,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router, err := handlers.NewRouter(cfg, logger, container, handlers.Extras{})
	suite.Require().NoError(err)
	suite.router = router

	token, err := utils.GenerateJWT("laptop", testSecret, time.Hour, utils.TokenIssuer)
	suite.Require().NoError(err)
	suite.token = token
}

func (suite *HandlerTestSuite) TearDownTest() {
	suite.budget.AssertExpectations(suite.T())
	suite.sync.AssertExpectations(suite.T())
	suite.refresh.AssertExpectations(suite.T())
	suite.backup.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) TestHealthIsPublic() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestAPIRequiresToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/view", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *HandlerTestSuite) TestGetView() {
	vm := dto.ViewModel{AvailableDisplay: "$700.00"}
	suite.budget.On("View", mock.Anything).Return(vm).Once()

	w := suite.do(http.MethodGet, "/api/v1/view", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"$700.00"`)
}

func (suite *HandlerTestSuite) TestCreateAccount() {
	account := &domain.Account{ID: "a1", Name: "Checking", Amount: decimal.NewFromInt(10), IsPositive: true}
	suite.budget.On("AddAccount", mock.Anything, mock.MatchedBy(func(req dto.CreateAccountRequest) bool {
		return req.Name == "Checking" && req.Amount.Equal(decimal.NewFromInt(10)) && req.IsPositive
	})).Return(account, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/accounts", `{"name":"Checking","amount":10,"isPositive":true}`)
	suite.Equal(http.StatusCreated, w.Code)

	var res dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("a1", res.ID)
}

func (suite *HandlerTestSuite) TestCreateAccount_MissingNameIsRejectedBeforeService() {
	w := suite.do(http.MethodPost, "/api/v1/accounts", `{"amount":10}`)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.budget.AssertNotCalled(suite.T(), "AddAccount", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestCreateItem_RejectsAccountsSection() {
	w := suite.do(http.MethodPost, "/api/v1/sections/accounts/items", `{"name":"x"}`)
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/sections/savings/items", `{"name":"x"}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestUpdateItemAmount_NeedsConfirmation() {
	suite.budget.On("UpdateAmountAndResetSpent", mock.Anything, domain.SectionBudget, "g1", mock.AnythingOfType("dto.UpdateAmountRequest")).
		Return(fmt.Errorf("%w: 3 spends will be cleared", apperrors.ErrConfirmationRequired)).Once()

	w := suite.do(http.MethodPut, "/api/v1/sections/budget/items/g1/amount", `{"amount":50}`)
	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *HandlerTestSuite) TestRecordSpend_TakesItemFromPath() {
	suite.budget.On("RecordSpend", mock.Anything, mock.MatchedBy(func(req dto.SpendRequest) bool {
		return req.Section == domain.SectionBudget && req.ItemID == "g1" && req.AccountID == "a1" && req.Amount.Equal(decimal.NewFromInt(25))
	})).Return(nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/sections/budget/items/g1/spend", `{"name":"market","amount":25,"accountID":"a1"}`)
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteSpend() {
	suite.budget.On("RemoveSpendEntry", mock.Anything, domain.SectionBudget, "g1", 2).Return(nil).Once()
	w := suite.do(http.MethodDelete, "/api/v1/sections/budget/items/g1/spend/2", nil)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodDelete, "/api/v1/sections/budget/items/g1/spend/last", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestDeleteAccount() {
	suite.budget.On("RemoveItem", mock.Anything, domain.SectionAccounts, "a1").Return(nil).Once()
	w := suite.do(http.MethodDelete, "/api/v1/accounts/a1", nil)
	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *HandlerTestSuite) TestTransfer_ParsesReferences() {
	from := domain.EntityRef{Section: domain.SectionAccounts, ID: "a1"}
	to := domain.EntityRef{Section: domain.SectionGoals, ID: "trip"}
	suite.budget.On("Transfer", mock.Anything, from, to, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(40))
	})).Return(nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/transfers", `{"from":"acc:a1","to":"goals:trip","amount":40}`)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodPost, "/api/v1/transfers", `{"from":"nowhere","to":"goals:trip","amount":40}`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestSave_MapsPreconditionAndRemoteErrors() {
	suite.sync.On("Save", mock.Anything, dto.SaveOptions{}).
		Return(fmt.Errorf("%w: Missing access token", apperrors.ErrPrecondition)).Once()
	w := suite.do(http.MethodPost, "/api/v1/sync/save", nil)
	suite.Equal(http.StatusPreconditionFailed, w.Code)

	suite.sync.On("Save", mock.Anything, dto.SaveOptions{CreateNew: true}).
		Return(&apperrors.RemoteError{Op: "create", StatusCode: 401, Message: "Bad credentials"}).Once()
	w = suite.do(http.MethodPost, "/api/v1/sync/save", `{"createNew":true}`)
	suite.Equal(http.StatusBadGateway, w.Code)
	suite.Contains(w.Body.String(), "Bad credentials")
}

func (suite *HandlerTestSuite) chunked(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, io.NopCloser(strings.NewReader(body)))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+suite.token)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlerTestSuite) TestSave_BindsChunkedBody() {
	suite.sync.On("Save", mock.Anything, dto.SaveOptions{CreateNew: true}).Return(nil).Once()
	suite.sync.On("Status", mock.Anything).Return(dto.SyncStatus{State: dto.SyncIdle}).Once()

	w := suite.chunked("/api/v1/sync/save", `{"createNew":true}`)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *HandlerTestSuite) TestLoad_EmptyChunkedBodyUsesDefaults() {
	suite.sync.On("Load", mock.Anything, dto.LoadOptions{}).Return(nil).Once()
	suite.sync.On("Status", mock.Anything).Return(dto.SyncStatus{State: dto.SyncIdle}).Once()

	w := suite.chunked("/api/v1/sync/load", "")
	suite.Equal(http.StatusOK, w.Code)

	w = suite.chunked("/api/v1/sync/load", `{"silent":`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestLoad_ReturnsStatus() {
	status := dto.SyncStatus{State: dto.SyncIdle, Message: "Loaded", DocumentID: "g-1", HasToken: true}
	suite.sync.On("Load", mock.Anything, dto.LoadOptions{}).Return(nil).Once()
	suite.sync.On("Status", mock.Anything).Return(status).Once()

	w := suite.do(http.MethodPost, "/api/v1/sync/load", nil)
	suite.Equal(http.StatusOK, w.Code)

	var res dto.SyncStatus
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("g-1", res.DocumentID)
}

func (suite *HandlerTestSuite) TestEvent_PassesPersistedFlag() {
	event := dto.RefreshEvent{Kind: dto.EventPageShow, Persisted: true}
	suite.refresh.On("Trigger", mock.Anything, event).Return(dto.RefreshResult{Refreshed: true}).Once()

	w := suite.do(http.MethodPost, "/api/v1/events/pageshow?persisted=true", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.JSONEq(`{"refreshed":true}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestExport_SetsAttachmentFilename() {
	suite.backup.On("Export", mock.Anything).
		Return(&dto.ExportResponse{Filename: "stack-backup-2025-03-15.json", Content: []byte(`{"accounts":[]}`)}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/backup/export", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(`attachment; filename="stack-backup-2025-03-15.json"`, w.Header().Get("Content-Disposition"))
	suite.Equal(`{"accounts":[]}`, w.Body.String())
}

func (suite *HandlerTestSuite) TestImport() {
	body := []byte(`{"accounts":[]}`)
	suite.backup.On("Import", mock.Anything, body, false).Return(apperrors.ErrConfirmationRequired).Once()
	w := suite.do(http.MethodPost, "/api/v1/backup/import", string(body))
	suite.Equal(http.StatusConflict, w.Code)

	suite.backup.On("Import", mock.Anything, body, true).Return(nil).Once()
	w = suite.do(http.MethodPost, "/api/v1/backup/import?confirm=true", string(body))
	suite.Equal(http.StatusNoContent, w.Code)

	suite.backup.On("Import", mock.Anything, []byte(`[]`), true).
		Return(fmt.Errorf("%w: not a JSON object", apperrors.ErrCorruptPayload)).Once()
	w = suite.do(http.MethodPost, "/api/v1/backup/import?confirm=true", `[]`)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *HandlerTestSuite) TestImport_RejectsOversizedFile() {
	body := `{"pad":"` + strings.Repeat("x", 10<<20) + `"}`
	w := suite.do(http.MethodPost, "/api/v1/backup/import?confirm=true", body)
	suite.Equal(http.StatusRequestEntityTooLarge, w.Code)
	suite.backup.AssertNotCalled(suite.T(), "Import", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
