package handlers_test

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"borgo/internal/domain"
)

func TestCategoriesAndForm(t *testing.T) {
	ta := newApp(t)

	resp := ta.do(t, "GET", "/api/v1/categories", nil, "", "")
	wantStatus(t, resp, http.StatusOK)
	cats := decode[[]domain.Category](t, resp)
	if len(cats) != 4 {
		t.Fatalf("want 4 seeded categories, got %d", len(cats))
	}

	resp = ta.do(t, "GET", "/api/v1/categories/cake-design", nil, "", "")
	wantStatus(t, resp, http.StatusOK)
	body := decode[struct {
		Fields       []domain.CategoryField `json:"fields"`
		Conditionals []map[string]any       `json:"conditionals"`
		Identity     map[string]string      `json:"identity"`
	}](t, resp)
	if len(body.Fields) != 8 || body.Fields[0].FieldKey != "pickup_date" {
		t.Fatalf("unexpected schema: %+v", body.Fields)
	}
	if len(body.Conditionals) != 4 || body.Identity != nil {
		t.Fatalf("unexpected extras: %+v", body)
	}

	resp = ta.do(t, "GET", "/api/v1/categories/cake-design", nil, "", "sid-user")
	body = decode[struct {
		Fields       []domain.CategoryField `json:"fields"`
		Conditionals []map[string]any       `json:"conditionals"`
		Identity     map[string]string      `json:"identity"`
	}](t, resp)
	if body.Identity["first_name"] != "Giulia" {
		t.Fatalf("signed-in identity missing: %+v", body.Identity)
	}

	wantStatus(t, ta.do(t, "GET", "/api/v1/categories/nope", nil, "", ""), http.StatusNotFound)
	wantStatus(t, ta.do(t, "GET", "/api/v1/categories/bad%20id", nil, "", ""), http.StatusBadRequest)
}

func TestSelectableDatesHonourLeadTimeAndCapacity(t *testing.T) {
	ta := newApp(t)

	resp := ta.do(t, "GET", "/api/v1/categories/cake-design/dates?from=2025-01-01&to=2025-01-10", nil, "", "")
	wantStatus(t, resp, http.StatusOK)
	got := decode[struct {
		Dates []string `json:"dates"`
	}](t, resp)
	if len(got.Dates) != 3 || got.Dates[0] != "2025-01-08" {
		t.Fatalf("want 2025-01-08..10, got %v", got.Dates)
	}

	resp = ta.json(t, "PUT", "/admin/categories/cake-design/capacity/2025-01-09", map[string]any{"max_orders": 1}, "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	ta.db.MustExec(`UPDATE category_capacity SET current_orders = 1 WHERE capacity_date = '2025-01-09'`)

	resp = ta.do(t, "GET", "/api/v1/categories/cake-design/dates?from=2025-01-01&to=2025-01-10", nil, "", "")
	got = decode[struct {
		Dates []string `json:"dates"`
	}](t, resp)
	if strings.Join(got.Dates, ",") != "2025-01-08,2025-01-10" {
		t.Fatalf("full day still offered: %v", got.Dates)
	}

	wantStatus(t, ta.do(t, "GET", "/api/v1/categories/cake-design/dates?from=2025-01-10&to=2025-01-01", nil, "", ""), http.StatusBadRequest)
}

func TestSlots(t *testing.T) {
	ta := newApp(t)

	// 2025-01-05 is a Sunday: only the sunday window applies
	resp := ta.do(t, "GET", "/api/v1/categories/cake-design/slots?date=2025-01-05", nil, "", "")
	wantStatus(t, resp, http.StatusOK)
	got := decode[struct {
		Slots []string `json:"slots"`
	}](t, resp)
	if len(got.Slots) != 9 || got.Slots[0] != "08:00" || got.Slots[8] != "12:00" {
		t.Fatalf("unexpected sunday slots %v", got.Slots)
	}

	// generated slots need a date first
	wantStatus(t, ta.do(t, "GET", "/api/v1/categories/cake-design/slots", nil, "", ""), http.StatusBadRequest)

	// flat lists come back verbatim
	resp = ta.do(t, "GET", "/api/v1/categories/torte-in-vetrina/slots", nil, "", "")
	wantStatus(t, resp, http.StatusOK)
	got = decode[struct {
		Slots []string `json:"slots"`
	}](t, resp)
	if strings.Join(got.Slots, ",") != "09:00,10:00,11:00,16:00,17:00,18:00" {
		t.Fatalf("flat slots changed: %v", got.Slots)
	}
}

func vetrinaOrder(date string) map[string]any {
	return map[string]any{
		"first_name": "Marco",
		"last_name":  "Bianchi",
		"phone":      "+39 347 7654321",
		"values": map[string]string{
			"pickup_date":  date,
			"pickup_time":  "10:00",
			"people_count": "4",
		},
	}
}

func TestSubmitJSON(t *testing.T) {
	ta := newApp(t)

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", vetrinaOrder("2025-01-03"), "")
	})
	wantStatus(t, resp, http.StatusCreated)
	o := decode[domain.Order](t, resp)
	if o.ID == "" || o.Status != domain.StatusReceived || o.PickupTime != "10:00" {
		t.Fatalf("unexpected order %+v", o)
	}
	if !hasAction(entries, "order.submit") {
		t.Fatal("expected order.submit audit log")
	}

	var n int
	if err := ta.db.Get(&n, `SELECT COUNT(*) FROM order_field_values WHERE order_id = ?`, o.ID); err != nil || n != 3 {
		t.Fatalf("want 3 stored answers, got %d (%v)", n, err)
	}
}

func TestSubmitJSONAcceptsTypedValues(t *testing.T) {
	ta := newApp(t)
	payload := map[string]any{
		"first_name": "Marco", "last_name": "Bianchi", "phone": "+39 347 7654321",
		"values": map[string]any{"pickup_date": "2025-01-03", "pickup_time": "10:00", "people_count": 4},
	}
	resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", payload, "")
	wantStatus(t, resp, http.StatusCreated)
	o := decode[domain.Order](t, resp)

	var people string
	if err := ta.db.Get(&people, `SELECT field_value FROM order_field_values WHERE order_id = ? AND field_key = 'people_count'`, o.ID); err != nil || people != "4" {
		t.Fatalf("want people_count stored as \"4\", got %q (%v)", people, err)
	}

	payload["values"].(map[string]any)["people_count"] = 2.5
	payload["values"].(map[string]any)["pickup_date"] = "2025-01-04"
	resp = ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", payload, "")
	wantStatus(t, resp, http.StatusCreated)
	o = decode[domain.Order](t, resp)
	_ = ta.db.Get(&people, `SELECT field_value FROM order_field_values WHERE order_id = ? AND field_key = 'people_count'`, o.ID)
	if people != "2.5" {
		t.Fatalf("decimal lost precision: %q", people)
	}
}

func TestSubmitValidationFailures(t *testing.T) {
	ta := newApp(t)

	missingTime := vetrinaOrder("2025-01-03")
	delete(missingTime["values"].(map[string]string), "pickup_time")
	resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", missingTime, "")
	wantStatus(t, resp, http.StatusUnprocessableEntity)
	if got := decode[map[string]string](t, resp); got["field"] != "pickup_time" {
		t.Fatalf("want pickup_time flagged, got %v", got)
	}

	// today is 2025-01-01 and the category needs a day's notice
	resp = ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", vetrinaOrder("2025-01-01"), "")
	wantStatus(t, resp, http.StatusUnprocessableEntity)
	if got := decode[map[string]string](t, resp); got["field"] != "pickup_date" {
		t.Fatalf("want pickup_date flagged, got %v", got)
	}

	noName := vetrinaOrder("2025-01-03")
	noName["first_name"] = ""
	resp = ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", noName, "")
	wantStatus(t, resp, http.StatusUnprocessableEntity)

	unknown := vetrinaOrder("2025-01-03")
	unknown["values"].(map[string]string)["print_description"] = "hidden field"
	wantStatus(t, ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", unknown, ""), http.StatusBadRequest)

	var n int
	_ = ta.db.Get(&n, `SELECT COUNT(*) FROM orders`)
	if n != 0 {
		t.Fatalf("invalid submissions stored %d orders", n)
	}
}

func TestSubmitCapacityFull(t *testing.T) {
	ta := newApp(t)
	wantStatus(t, ta.json(t, "PUT", "/admin/categories/torte-in-vetrina/capacity/2025-01-03", map[string]any{"max_orders": 1}, "sid-admin"), http.StatusOK)

	wantStatus(t, ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", vetrinaOrder("2025-01-03"), ""), http.StatusCreated)
	resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", vetrinaOrder("2025-01-03"), "")
	wantStatus(t, resp, http.StatusUnprocessableEntity)
	if got := decode[map[string]string](t, resp); got["field"] != "pickup_date" {
		t.Fatalf("want pickup_date flagged, got %v", got)
	}
}

func imagePart(t *testing.T, mw *multipart.Writer, field, name, ctype, body string) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	h.Set("Content-Type", ctype)
	w, err := mw.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.WriteString(w, body)
}

func cakeForm(t *testing.T, mw *multipart.Writer, extra map[string]string) {
	t.Helper()
	values := map[string]string{
		"first_name": "Giulia", "last_name": "Rossi", "phone": "+39 333 1234567",
		"pickup_date": "2025-01-08", "pickup_time": "09:00", "tiers": "1", "people_count": "10",
		"print_option": "Si",
	}
	for k, v := range extra {
		values[k] = v
	}
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSubmitRefusesTypedImageReference(t *testing.T) {
	ta := newApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	cakeForm(t, mw, map[string]string{"print_image": "https://tracker.example.net/pixel.gif"})
	_ = mw.Close()
	wantStatus(t, ta.do(t, "POST", "/api/v1/categories/cake-design/orders", &buf, mw.FormDataContentType(), ""), http.StatusBadRequest)

	payload := map[string]any{
		"first_name": "Giulia", "last_name": "Rossi", "phone": "+39 333 1234567",
		"values": map[string]string{
			"pickup_date": "2025-01-08", "pickup_time": "09:00", "tiers": "1", "people_count": "10",
			"print_option": "Si", "print_image": "https://tracker.example.net/pixel.gif",
		},
	}
	wantStatus(t, ta.json(t, "POST", "/api/v1/categories/cake-design/orders", payload, ""), http.StatusBadRequest)

	var n int
	_ = ta.db.Get(&n, `SELECT COUNT(*) FROM orders`)
	if n != 0 {
		t.Fatalf("order stored with a typed image reference")
	}
}

func TestSubmitRefusesNonImageUpload(t *testing.T) {
	ta := newApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	cakeForm(t, mw, nil)
	imagePart(t, mw, "print_image", "cake.html", "text/html", "<script>alert(1)</script>")
	_ = mw.Close()

	resp := ta.do(t, "POST", "/api/v1/categories/cake-design/orders", &buf, mw.FormDataContentType(), "")
	wantStatus(t, resp, http.StatusUnsupportedMediaType)
	if len(ta.up.names) != 0 {
		t.Fatalf("non-image reached storage: %v", ta.up.names)
	}
}

func TestSubmitMultipartWithPrintImage(t *testing.T) {
	ta := newApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"first_name":        "Giulia",
		"last_name":         "Rossi",
		"phone":             "+39 333 1234567",
		"pickup_date":       "2025-01-08",
		"pickup_time":       "09:00",
		"tiers":             "2",
		"people_count":      "20",
		"print_option":      "Si",
		"print_description": "logo azienda",
	} {
		_ = mw.WriteField(k, v)
	}
	imagePart(t, mw, "print_image", "logo.png", "image/png", "\x89PNG fake")
	_ = mw.Close()

	resp := ta.do(t, "POST", "/api/v1/categories/cake-design/orders", &buf, mw.FormDataContentType(), "")
	wantStatus(t, resp, http.StatusCreated)
	o := decode[domain.Order](t, resp)

	var ref string
	if err := ta.db.Get(&ref, `SELECT file_url FROM order_field_values WHERE order_id = ? AND field_key = 'print_image'`, o.ID); err != nil {
		t.Fatalf("print image answer missing: %v", err)
	}
	if ref != "https://cdn.borgo.test/order-images/logo.png" {
		t.Fatalf("unexpected reference %q", ref)
	}
	if len(ta.up.names) != 1 {
		t.Fatalf("want one upload, got %v", ta.up.names)
	}
}

func TestSubmitUploadToHiddenFieldRejected(t *testing.T) {
	ta := newApp(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"first_name": "Giulia", "last_name": "Rossi", "phone": "+39 333 1234567",
		"pickup_date": "2025-01-08", "pickup_time": "09:00", "tiers": "1", "people_count": "10",
		"print_option": "No",
	} {
		_ = mw.WriteField(k, v)
	}
	imagePart(t, mw, "print_image", "logo.png", "image/png", "data")
	_ = mw.Close()

	resp := ta.do(t, "POST", "/api/v1/categories/cake-design/orders", &buf, mw.FormDataContentType(), "")
	wantStatus(t, resp, http.StatusBadRequest)
	if len(ta.up.names) != 0 {
		t.Fatalf("hidden field upload reached storage: %v", ta.up.names)
	}
}

func TestSignedInCustomerOrders(t *testing.T) {
	ta := newApp(t)

	// identity comes from the account, not the body
	payload := vetrinaOrder("2025-01-03")
	payload["first_name"] = ""
	resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", payload, "sid-user")
	wantStatus(t, resp, http.StatusCreated)
	o := decode[domain.Order](t, resp)
	if o.CustomerName != "Giulia" {
		t.Fatalf("want account identity, got %+v", o)
	}

	resp = ta.do(t, "GET", "/api/v1/me/orders", nil, "", "sid-user")
	wantStatus(t, resp, http.StatusOK)
	mine := decode[[]domain.Order](t, resp)
	if len(mine) != 1 || mine[0].ID != o.ID {
		t.Fatalf("unexpected own orders %+v", mine)
	}

	wantStatus(t, ta.do(t, "GET", "/api/v1/me/orders", nil, "", ""), http.StatusUnauthorized)
}

func TestCSRFRequiredOnSubmit(t *testing.T) {
	ta := newApp(t)
	ta.csrf = ""
	entries := captureLogs(t, func() {
		resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", vetrinaOrder("2025-01-03"), "")
		wantStatus(t, resp, http.StatusForbidden)
	})
	if !hasAction(entries, "csrf.fail") {
		t.Fatal("expected csrf.fail log")
	}
}
