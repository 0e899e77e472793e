package webapi

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/ledger/internal/fixtures/memstore"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AccountTestSuite struct {
	suite.Suite
	app *fiber.App
}

func (s *AccountTestSuite) SetupTest() {
	svc := ledger.NewService(memstore.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := &config.App{
		Server: config.Server{
			RateLimitMax:    10000,
			RateLimitWindow: time.Minute,
		},
	}
	s.app = NewApp(svc, cfg)
}

func (s *AccountTestSuite) makeRequest(method, path, body string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	return resp
}

func (s *AccountTestSuite) decodeData(resp *http.Response) map[string]any {
	var envelope Response
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	data, ok := envelope.Data.(map[string]any)
	s.Require().True(ok, "response data should be an object, got %T", envelope.Data)
	return data
}

func (s *AccountTestSuite) createAccount(owner, currency string) string {
	resp := s.makeRequest("POST", "/accounts", fmt.Sprintf(`{"owner":%q,"currency":%q}`, owner, currency))
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	data := s.decodeData(resp)
	id, _ := data["id"].(string)
	s.Require().NotEmpty(id)
	return id
}

func (s *AccountTestSuite) assertDecimal(want string, got any) {
	raw, ok := got.(string)
	s.Require().True(ok, "expected decimal string, got %T", got)
	s.Assert().True(decimal.RequireFromString(want).Equal(decimal.RequireFromString(raw)),
		"want %s, got %s", want, raw)
}

func (s *AccountTestSuite) TestCreateAccountVariants() {
	testCases := []struct {
		desc       string
		body       string
		wantStatus int
	}{
		{
			desc:       "success",
			body:       `{"owner":"alice","currency":"USD"}`,
			wantStatus: fiber.StatusCreated,
		},
		{
			desc:       "lowercase currency is normalized",
			body:       `{"owner":"bob","currency":"inr"}`,
			wantStatus: fiber.StatusCreated,
		},
		{
			desc:       "unsupported currency",
			body:       `{"owner":"carol","currency":"EUR"}`,
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			desc:       "missing owner",
			body:       `{"currency":"USD"}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			desc:       "invalid body",
			body:       `{"owner":"dave","currency":123}`,
			wantStatus: fiber.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			resp := s.makeRequest("POST", "/accounts", tc.body)
			defer resp.Body.Close() //nolint:errcheck
			s.Assert().Equal(tc.wantStatus, resp.StatusCode)
		})
	}
}

func (s *AccountTestSuite) TestCreateAccountStartsAtZero() {
	resp := s.makeRequest("POST", "/accounts", `{"owner":"alice","currency":"USD"}`)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	data := s.decodeData(resp)
	s.Assert().Equal("alice", data["owner"])
	s.Assert().Equal("USD", data["currency"])
	s.assertDecimal("0", data["balance"])
}

func (s *AccountTestSuite) TestGetAccountVariants() {
	accountID := s.createAccount("alice", "USD")

	testCases := []struct {
		desc       string
		path       string
		wantStatus int
	}{
		{"existing account", "/accounts/" + accountID, fiber.StatusOK},
		{"unknown account", "/accounts/" + uuid.NewString(), fiber.StatusNotFound},
		{"malformed id", "/accounts/not-a-uuid", fiber.StatusBadRequest},
	}

	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			resp := s.makeRequest("GET", tc.path, "")
			defer resp.Body.Close() //nolint:errcheck
			s.Assert().Equal(tc.wantStatus, resp.StatusCode)
		})
	}
}

func (s *AccountTestSuite) TestDepositAndWithdraw() {
	accountID := s.createAccount("alice", "USD")

	resp := s.makeRequest("POST", "/accounts/"+accountID+"/deposit",
		`{"amount":100.00,"idempotency_key":"dep-1"}`)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	data := s.decodeData(resp)
	s.Assert().Equal("success", data["status"])
	s.assertDecimal("100.00", data["new_balance"])

	resp = s.makeRequest("POST", "/accounts/"+accountID+"/withdraw",
		`{"amount":30.50,"idempotency_key":"wd-1"}`)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	data = s.decodeData(resp)
	s.assertDecimal("69.50", data["new_balance"])

	// Balance is visible through the read endpoint.
	resp = s.makeRequest("GET", "/accounts/"+accountID, "")
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.assertDecimal("69.50", s.decodeData(resp)["balance"])
}

func (s *AccountTestSuite) TestDepositReplayIsSkipped() {
	accountID := s.createAccount("alice", "USD")
	body := `{"amount":25.00,"idempotency_key":"dep-1"}`

	resp := s.makeRequest("POST", "/accounts/"+accountID+"/deposit", body)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	resp = s.makeRequest("POST", "/accounts/"+accountID+"/deposit", body)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Assert().Equal("SKIPPED", s.decodeData(resp)["status"])

	resp = s.makeRequest("GET", "/accounts/"+accountID, "")
	defer resp.Body.Close() //nolint:errcheck
	s.assertDecimal("25.00", s.decodeData(resp)["balance"])
}

func (s *AccountTestSuite) TestMutationValidation() {
	accountID := s.createAccount("alice", "USD")

	testCases := []struct {
		desc       string
		path       string
		body       string
		wantStatus int
	}{
		{
			desc:       "zero amount",
			path:       "/accounts/" + accountID + "/deposit",
			body:       `{"amount":0,"idempotency_key":"k1"}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			desc:       "negative amount",
			path:       "/accounts/" + accountID + "/deposit",
			body:       `{"amount":-5.00,"idempotency_key":"k2"}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			desc:       "sub-cent precision",
			path:       "/accounts/" + accountID + "/deposit",
			body:       `{"amount":1.001,"idempotency_key":"k3"}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			desc:       "missing idempotency key",
			path:       "/accounts/" + accountID + "/deposit",
			body:       `{"amount":5.00}`,
			wantStatus: fiber.StatusBadRequest,
		},
		{
			desc:       "withdraw exceeding balance",
			path:       "/accounts/" + accountID + "/withdraw",
			body:       `{"amount":1.00,"idempotency_key":"k4"}`,
			wantStatus: fiber.StatusUnprocessableEntity,
		},
		{
			desc:       "deposit to unknown account",
			path:       "/accounts/" + uuid.NewString() + "/deposit",
			body:       `{"amount":5.00,"idempotency_key":"k5"}`,
			wantStatus: fiber.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			resp := s.makeRequest("POST", tc.path, tc.body)
			defer resp.Body.Close() //nolint:errcheck
			s.Assert().Equal(tc.wantStatus, resp.StatusCode)
		})
	}
}

func (s *AccountTestSuite) TestTransferFlow() {
	fromID := s.createAccount("alice", "USD")
	toID := s.createAccount("bob", "USD")

	resp := s.makeRequest("POST", "/accounts/"+fromID+"/deposit",
		`{"amount":100.00,"idempotency_key":"seed"}`)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	body := fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount":40.00,"idempotency_key":"tr-1"}`, fromID, toID)
	resp = s.makeRequest("POST", "/transfer", body)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	data := s.decodeData(resp)
	s.Assert().Equal("success", data["status"])
	s.assertDecimal("60.00", data["sender_new_balance"])

	// Replay returns SKIPPED and moves no funds.
	resp = s.makeRequest("POST", "/transfer", body)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Assert().Equal("SKIPPED", s.decodeData(resp)["status"])

	resp = s.makeRequest("GET", "/accounts/"+toID, "")
	defer resp.Body.Close() //nolint:errcheck
	s.assertDecimal("40.00", s.decodeData(resp)["balance"])
}

func (s *AccountTestSuite) TestTransferVariants() {
	fromID := s.createAccount("alice", "USD")
	toID := s.createAccount("bob", "USD")

	resp := s.makeRequest("POST", "/accounts/"+fromID+"/deposit",
		`{"amount":10.00,"idempotency_key":"seed"}`)
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	transferBody := func(from, to, amount string) string {
		return fmt.Sprintf(`{"from_account_id":%q,"to_account_id":%q,"amount":%s,"idempotency_key":"tr-x"}`, from, to, amount)
	}

	testCases := []struct {
		desc       string
		body       string
		wantStatus int
	}{
		{"same account", transferBody(fromID, fromID, "5.00"), fiber.StatusBadRequest},
		{"insufficient funds", transferBody(fromID, toID, "500.00"), fiber.StatusUnprocessableEntity},
		{"unknown sender", transferBody(uuid.NewString(), toID, "5.00"), fiber.StatusNotFound},
		{"unknown receiver", transferBody(fromID, uuid.NewString(), "5.00"), fiber.StatusNotFound},
		{"malformed sender id", `{"from_account_id":"nope","to_account_id":"` + toID + `","amount":5.00,"idempotency_key":"tr-x"}`, fiber.StatusBadRequest},
		{"invalid amount", transferBody(fromID, toID, "0"), fiber.StatusBadRequest},
	}

	for _, tc := range testCases {
		s.Run(tc.desc, func() {
			resp := s.makeRequest("POST", "/transfer", tc.body)
			defer resp.Body.Close() //nolint:errcheck
			s.Assert().Equal(tc.wantStatus, resp.StatusCode)
		})
	}
}

func (s *AccountTestSuite) TestGetHistory() {
	accountID := s.createAccount("alice", "USD")

	for i := 1; i <= 3; i++ {
		resp := s.makeRequest("POST", "/accounts/"+accountID+"/deposit",
			fmt.Sprintf(`{"amount":%d.00,"idempotency_key":"dep-%d"}`, i, i))
		defer resp.Body.Close() //nolint:errcheck
		s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	}

	resp := s.makeRequest("GET", "/accounts/"+accountID+"/history", "")
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	var envelope Response
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	entries, ok := envelope.Data.([]any)
	s.Require().True(ok, "history data should be an array, got %T", envelope.Data)
	s.Require().Len(entries, 3)

	first, ok := entries[0].(map[string]any)
	s.Require().True(ok)
	s.Assert().Equal("dep-3", first["idempotency_key"])
	s.Assert().Equal("DEPOSIT", first["transaction_type"])

	// Pagination.
	resp = s.makeRequest("GET", "/accounts/"+accountID+"/history?offset=2&limit=2", "")
	defer resp.Body.Close() //nolint:errcheck
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&envelope))
	entries, ok = envelope.Data.([]any)
	s.Require().True(ok)
	s.Require().Len(entries, 1)

	// Unknown account yields 404 rather than an empty page.
	resp = s.makeRequest("GET", "/accounts/"+uuid.NewString()+"/history", "")
	defer resp.Body.Close() //nolint:errcheck
	s.Assert().Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *AccountTestSuite) TestErrorsUseProblemDetails() {
	resp := s.makeRequest("GET", "/accounts/not-a-uuid", "")
	defer resp.Body.Close() //nolint:errcheck
	s.Require().Equal(fiber.StatusBadRequest, resp.StatusCode)
	s.Assert().Contains(resp.Header.Get(fiber.HeaderContentType), "application/problem+json")

	var pd ProblemDetails
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&pd))
	s.Assert().Equal(fiber.StatusBadRequest, pd.Status)
	s.Assert().Equal("Invalid account ID", pd.Title)
	s.Assert().Equal("/accounts/not-a-uuid", pd.Instance)
}

func TestAccountTestSuite(t *testing.T) {
	suite.Run(t, new(AccountTestSuite))
}
