package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgs-intellisol/nexuscrux-website/internal/store"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) SubmissionReceived(ctx context.Context, label, id string, at time.Time, fields map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, label+":"+id)
	return n.err
}

func allCollections() []string {
	var out []string
	for _, k := range Catalogue() {
		out = append(out, k.Collection)
	}
	return out
}

func newTestRouter(t *testing.T, gw store.Gateway, opts ...Option) http.Handler {
	t.Helper()
	h := NewHandler(gw, logging.Default(), opts...)
	r := chi.NewRouter()
	for _, k := range Catalogue() {
		r.Post("/contact/"+k.Name, h.Create(k))
		r.Get("/contact/"+k.Name, h.List(k))
		r.Get("/contact/"+k.Name+"/{id}", h.Get(k))
		r.Patch("/contact/"+k.Name+"/{id}", h.Update(k))
	}
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w, out
}

func TestCreateDemo_Success(t *testing.T) {
	gw := store.NewMemoryGateway(allCollections()...)
	notifier := &recordingNotifier{}
	router := newTestRouter(t, gw, WithNotifier(notifier))

	before := time.Now().UTC().Add(-time.Second)
	w, body := doJSON(t, router, http.MethodPost, "/contact/demo", map[string]any{
		"name":    "Ada Lovelace",
		"email":   "ada@example.com",
		"company": "Analytical Engines",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Demo request submitted successfully", body["message"])

	id, _ := body["submissionId"].(string)
	require.NotEmpty(t, id)
	submittedAt, err := time.Parse(time.RFC3339Nano, body["submittedAt"].(string))
	require.NoError(t, err)
	assert.False(t, submittedAt.Before(before))
	assert.Equal(t, []string{"Demo request:" + id}, notifier.calls)

	// round trip: omitted optionals come back as explicit nulls
	w, body = doJSON(t, router, http.MethodGet, "/contact/demo/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Ada Lovelace", data["name"])
	assert.Equal(t, "new", data["status"])
	phone, ok := data["phone"]
	assert.True(t, ok)
	assert.Nil(t, phone)
}

func TestCreate_MissingFieldCreatesNoRow(t *testing.T) {
	gw := store.NewMemoryGateway(allCollections()...)
	router := newTestRouter(t, gw)

	for _, k := range Catalogue() {
		w, body := doJSON(t, router, http.MethodPost, "/contact/"+k.Name, map[string]any{"unrelated": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code, k.Name)
		assert.Equal(t, false, body["success"])

		page, err := gw.Select(context.Background(), k.Collection, store.Query{Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, page.Count, k.Name)
	}
}

func TestCreate_InvalidEmail(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryGateway(allCollections()...))
	w, _ := doJSON(t, router, http.MethodPost, "/contact/driver-interest", map[string]any{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_DriverApplicationRejectsCaravan(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryGateway(allCollections()...))
	w, body := doJSON(t, router, http.MethodPost, "/contact/driver-application", map[string]any{
		"email":        "driver@example.com",
		"first_name":   "Sam",
		"last_name":    "Hill",
		"phone":        "07700900000",
		"postcode":     "M1 1AA",
		"vehicle_type": "Caravan",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []any{"SWB", "LWB", "Luton", "Other"}, body["validValues"])
}

func TestCreate_DemoTypeRoutesToDriverDemo(t *testing.T) {
	gw := store.NewMemoryGateway(allCollections()...)
	router := newTestRouter(t, gw)

	w, body := doJSON(t, router, http.MethodPost, "/contact/demo", map[string]any{
		"name":         "Sam Hill",
		"email":        "sam@example.com",
		"phone":        "07700900000",
		"company_name": "Hill Haulage",
		"demo_type":    "driver_app",
		"source":       "drivers_page",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Driver demo request submitted successfully", body["message"])

	page, err := gw.Select(context.Background(), DriverDemoRequests, store.Query{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "driver_app", page.Rows[0]["demo_type"])

	page, err = gw.Select(context.Background(), DemoRequests, store.Query{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Count)
}

func TestCreate_MissingTable(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryGateway())
	w, body := doJSON(t, router, http.MethodPost, "/contact/sandbox", map[string]any{
		"name": "Ada", "email": "ada@example.com", "company": "Acme", "useCase": "routing",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "42P01", body["code"])
	assert.NotEmpty(t, body["setupGuide"])
	assert.Contains(t, body["error"], "sandbox_requests")
}

func TestCreate_NotificationFailureDoesNotFailRequest(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("smtp down")}
	router := newTestRouter(t, store.NewMemoryGateway(allCollections()...), WithNotifier(notifier))
	w, _ := doJSON(t, router, http.MethodPost, "/contact/driver-interest", map[string]any{
		"email": "driver@example.com", "source": "drivers_page_hero", "timestamp": "2025-06-01T10:00:00Z",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, notifier.calls, 1)
}

func TestList_FiltersAndPages(t *testing.T) {
	gw := store.NewMemoryGateway(allCollections()...)
	router := newTestRouter(t, gw)

	var ids []string
	for i := 0; i < 4; i++ {
		_, body := doJSON(t, router, http.MethodPost, "/contact/demo", map[string]any{
			"name": "Lead", "email": "lead@example.com", "company": "Acme",
		})
		ids = append(ids, body["submissionId"].(string))
	}
	w, _ := doJSON(t, router, http.MethodPatch, "/contact/demo/"+ids[0], map[string]any{"status": "contacted"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, router, http.MethodGet, "/contact/demo?status=new&limit=2&offset=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].([]any)
	assert.Len(t, data, 2)
	for _, row := range data {
		assert.Equal(t, "new", row.(map[string]any)["status"])
	}
	assert.EqualValues(t, 3, body["count"])
	assert.EqualValues(t, 2, body["limit"])
	assert.EqualValues(t, 0, body["offset"])

	w, body = doJSON(t, router, http.MethodGet, "/contact/demo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 100, body["limit"])
}

func TestList_PartnerTypeFilter(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryGateway(allCollections()...))
	for _, pt := range []string{"reseller", "technology", "reseller"} {
		w, _ := doJSON(t, router, http.MethodPost, "/contact/partner", map[string]any{
			"name": "P", "email": "p@example.com", "company": "Co", "partnershipType": pt, "message": "hello",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}
	_, body := doJSON(t, router, http.MethodGet, "/contact/partner?type=reseller", nil)
	assert.EqualValues(t, 2, body["count"])
}

func TestList_BadPaging(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryGateway(allCollections()...))
	for _, q := range []string{"limit=abc", "limit=0", "offset=-1"} {
		w, _ := doJSON(t, router, http.MethodGet, "/contact/sandbox?"+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestUpdate_StatusLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gw := store.NewMemoryGateway(allCollections()...)
	router := newTestRouter(t, gw, WithClock(func() time.Time { return now }))

	_, created := doJSON(t, router, http.MethodPost, "/contact/demo", map[string]any{
		"name": "Ada", "email": "ada@example.com", "company": "Acme",
	})
	id := created["submissionId"].(string)

	w, body := doJSON(t, router, http.MethodPatch, "/contact/demo/"+id, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No fields to update", body["error"])

	w, body = doJSON(t, router, http.MethodPatch, "/contact/demo/"+id, map[string]any{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, body["validValues"], 6)

	w, body = doJSON(t, router, http.MethodPatch, "/contact/demo/"+id, map[string]any{"status": "contacted", "salesRep": "Jo"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Demo request updated successfully", body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "contacted", data["status"])
	assert.Equal(t, "Jo", data["sales_rep"])
	assert.Equal(t, now.Format(time.RFC3339), data["contacted_at"])

	w, _ = doJSON(t, router, http.MethodPatch, "/contact/demo/does-not-exist", map[string]any{"status": "closed"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGet_NotFound(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryGateway(allCollections()...))
	w, body := doJSON(t, router, http.MethodGet, "/contact/partner/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Partner inquiry not found", body["error"])
}

func TestCreate_InvalidJSON(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryGateway(allCollections()...))
	req := httptest.NewRequest(http.MethodPost, "/contact/demo", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
