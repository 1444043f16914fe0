package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"kiriman/internal/contact"
	"kiriman/internal/corrector"
	"kiriman/internal/store"
	"kiriman/internal/wilayah"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	dataset := map[string][]wilayah.Area{
		"/provinces.json":       {{ID: "35", Name: "JAWA TIMUR"}},
		"/regencies/35.json":    {{ID: "3515", Name: "KABUPATEN SIDOARJO"}},
		"/districts/3515.json":  {{ID: "351501", Name: "SIDOARJO"}},
		"/villages/351501.json": {{ID: "3515011002", Name: "SIDOKARE"}},
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		areas, ok := dataset[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(areas)
	}))
	t.Cleanup(server.Close)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	client := wilayah.NewClient(server.URL, st, nil)
	return NewHandler(st, corrector.New(client, nil, 0), client, nil)
}

func postJSON(t *testing.T, handle http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handle(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return out
}

const orderMessage = `Nama: Budi Santoso
HP: 081234567890
Alamat: Jl. Merdeka No 10
Kelurahan: Sidokare
Kecamatan: Sidoarjo
Kabupaten: Sidoarjo
Provinsi: Jawa Timur`

func TestParseEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Parse, "/parse", `{"message":`+mustJSON(t, orderMessage)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	resp := decodeBody[parseResponse](t, rec)
	if !resp.Found || resp.Contact == nil {
		t.Fatalf("response = %+v, want a found contact", resp)
	}
	if resp.Contact.Name != "Budi Santoso" || resp.Contact.PhoneNumber != "6281234567890" {
		t.Errorf("contact = %+v, want extracted name and normalized phone", resp.Contact)
	}
	// Parse never touches the reference dataset.
	if resp.Contact.Validated || resp.Contact.ReferenceIDs.ProvinceID != "" {
		t.Errorf("contact = %+v, want an unvalidated draft", resp.Contact)
	}
	if resp.FormattedAddress == "" {
		t.Error("formatted_address missing")
	}
}

func TestParseEndpointNoContact(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Parse, "/parse", `{"message":"halo kak, mau tanya stok"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeBody[parseResponse](t, rec)
	if resp.Found || resp.Contact != nil {
		t.Errorf("response = %+v, want found=false without a contact", resp)
	}
}

func TestParseEndpointBadRequests(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message":`},
		{"empty message", `{"message":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Parse, "/parse", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestParseEndpointMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/parse", nil)
	rec := httptest.NewRecorder()
	h.Parse(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q, want POST", allow)
	}
}

func TestCorrectEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Correct, "/correct", `{"message":`+mustJSON(t, orderMessage)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	resp := decodeBody[parseResponse](t, rec)
	if !resp.Found || resp.Contact == nil {
		t.Fatalf("response = %+v, want a found contact", resp)
	}
	c := resp.Contact
	if !c.Validated {
		t.Error("Validated = false, want true")
	}
	if c.Regency != "KABUPATEN SIDOARJO" || c.ReferenceIDs.RegencyID != "3515" {
		t.Errorf("regency = %q/%q, want KABUPATEN SIDOARJO/3515", c.Regency, c.ReferenceIDs.RegencyID)
	}
	if c.ReferenceIDs.VillageID != "3515011002" {
		t.Errorf("village id = %q, want 3515011002", c.ReferenceIDs.VillageID)
	}
	if !strings.Contains(resp.FormattedAddress, "KABUPATEN SIDOARJO") {
		t.Errorf("formatted_address = %q, want the corrected regency in it", resp.FormattedAddress)
	}
}

func TestContactsSaveAndList(t *testing.T) {
	h := newTestHandler(t)

	body := `{"name":"Budi Santoso","phone_number":"6281234567890","street_address":"Jl. Merdeka No 10","province":"JAWA TIMUR","validated":true}`
	rec := postJSON(t, h.Contacts, "/contacts", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	saved := decodeBody[saveResponse](t, rec)
	if saved.ID == 0 {
		t.Error("save response id = 0")
	}

	req := httptest.NewRequest(http.MethodGet, "/contacts?limit=5", nil)
	list := httptest.NewRecorder()
	h.Contacts(list, req)
	if list.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", list.Code)
	}
	contacts := decodeBody[[]store.SavedContact](t, list)
	if len(contacts) != 1 || contacts[0].Name != "Budi Santoso" {
		t.Errorf("listing = %v, want the saved contact", contacts)
	}
	if contacts[0].Payment != contact.PaymentUnknown {
		t.Errorf("payment = %q, want the unknown default", contacts[0].Payment)
	}
}

func TestContactsRejectsEmptyIdentity(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Contacts, "/contacts", `{"street_address":"Jl. Mawar 1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestContactsListEmpty(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	rec := httptest.NewRecorder()
	h.Contacts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want an empty JSON array", body)
	}
}

func TestClearCacheEndpoint(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.ClearCache, "/cache/clear", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	get := httptest.NewRequest(http.MethodGet, "/cache/clear", nil)
	bad := httptest.NewRecorder()
	h.ClearCache(bad, get)
	if bad.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", bad.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody[map[string]string](t, rec)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}
}

func mustJSON(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshaling %q: %v", s, err)
	}
	return string(b)
}
