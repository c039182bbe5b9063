package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/warp/credit-facility/api"
	"github.com/warp/credit-facility/clock"
	"github.com/warp/credit-facility/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *clock.Test) {
	t.Helper()
	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := clock.NewTest(clock.Date(2026, time.January, 1))
	h := api.NewHandler(clk, st)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, clk
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func termLoanRequest() api.CreateFacilityRequest {
	return api.CreateFacilityRequest{
		AccountID:  "acct-1",
		CustomerID: "cust-1",
		Commitment: "1200.00",
		Kind:       "term_loan",
		TermMonths: 12,
		Amortization: "equal_installment",
		Interest: api.InterestRequest{
			DayCount:    "actual_365",
			Compounding: "daily",
			BaseRate:    "0",
		},
		Payment: api.PaymentRequest{Overpayment: "reduce_term"},
	}
}

func TestCreateFacility_ThenApproveAndDisburse(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "/api/facilities", termLoanRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	decode(t, resp, &created)
	id := created["id"].(string)
	require.NotEmpty(t, id)
	require.Equal(t, "originated", created["status"])

	resp = postJSON(t, srv, "/api/facilities/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv, "/api/facilities/"+id+"/disburse", api.AmountRequest{Amount: "1200.00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var disburseResp map[string]string
	decode(t, resp, &disburseResp)
	require.Equal(t, "1200.00000000", disburseResp["disbursed"])
}

func TestCreateFacility_InvalidConfigRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := termLoanRequest()
	req.Commitment = "-5.00"
	resp := postJSON(t, srv, "/api/facilities", req)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDisburse_BeforeApproval_Fails(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "/api/facilities", termLoanRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	decode(t, resp, &created)
	id := created["id"].(string)

	resp = postJSON(t, srv, "/api/facilities/"+id+"/disburse", api.AmountRequest{Amount: "100.00"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAdvanceTime_AdvancesBoundTestClock(t *testing.T) {
	srv, clk := newTestServer(t)
	before := clk.Now()

	resp := postJSON(t, srv, "/api/admin/advance-time", api.AdvanceTimeRequest{Days: 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, before.AddDays(5).String(), clk.Now().String())
}

func TestListFacilities_ReflectsCreated(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "/api/facilities", termLoanRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp, err := http.Get(srv.URL + "/api/facilities")
	require.NoError(t, err)
	defer listResp.Body.Close()

	var summaries []api.FacilitySummaryDTO
	decode(t, listResp, &summaries)
	require.Len(t, summaries, 1)
	require.Equal(t, "term_loan", summaries[0].Kind)
}

func TestGetFacility_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/facilities/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScenarios_ListAndLoad(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/scenarios")
	require.NoError(t, err)
	defer resp.Body.Close()
	var catalog []map[string]string
	decode(t, resp, &catalog)
	require.NotEmpty(t, catalog)

	resp = postJSON(t, srv, "/api/scenarios/load", api.LoadScenarioRequest{ID: "zero_interest_term_loan"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result api.ScenarioResult
	decode(t, resp, &result)
	require.Equal(t, "zero_interest_term_loan", result.ID)
	require.Len(t, result.Steps, 14) // approve + disburse + 12 payments
}

func TestScenarios_UnknownIDRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv, "/api/scenarios/load", api.LoadScenarioRequest{ID: "nope"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
