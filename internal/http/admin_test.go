package handlers_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"borgo/internal/domain"
)

func TestAdminGuardRequiresAdmin(t *testing.T) {
	ta := newApp(t)

	resp := ta.do(t, "GET", "/admin/orders", nil, "", "")
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login?next=%2Fadmin%2Forders" {
		t.Fatalf("anonymous visitor should be sent to login, got %d", resp.StatusCode)
	}

	entries := captureLogs(t, func() {
		wantStatus(t, ta.do(t, "GET", "/admin/orders", nil, "", "sid-user"), http.StatusForbidden)
		wantStatus(t, ta.json(t, "POST", "/admin/categories/cake-design/fields", map[string]any{"field_key": "inscription"}, "sid-user"), http.StatusForbidden)
	})
	if !hasAction(entries, "access.denied.admin") {
		t.Fatal("expected access.denied.admin log")
	}

	wantStatus(t, ta.do(t, "GET", "/admin/orders", nil, "", "sid-admin"), http.StatusOK)
}

func TestAdminSchemaEditing(t *testing.T) {
	ta := newApp(t)
	base := "/admin/categories/torte-in-vetrina/fields"

	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = ta.json(t, "POST", base, map[string]any{"field_key": "inscription", "rules": map[string]any{"maxLength": 30}}, "sid-admin")
	})
	wantStatus(t, resp, http.StatusCreated)
	added := decode[domain.CategoryField](t, resp)
	if added.Position != 3 || added.Label != "Scritta" {
		t.Fatalf("want appended with catalog label, got %+v", added)
	}
	if !hasAction(entries, "schema.field.add") {
		t.Fatal("expected schema.field.add audit log")
	}

	wantStatus(t, ta.json(t, "POST", base, map[string]any{"field_key": "inscription"}, "sid-admin"), http.StatusConflict)
	wantStatus(t, ta.json(t, "POST", base, map[string]any{"field_key": "allergies", "rules": map[string]any{"bogus": 1}}, "sid-admin"), http.StatusBadRequest)
	wantStatus(t, ta.json(t, "POST", base, map[string]any{"field_key": "Bad Key"}, "sid-admin"), http.StatusBadRequest)
	wantStatus(t, ta.json(t, "POST", "/admin/categories/nope/fields", map[string]any{"field_key": "inscription"}, "sid-admin"), http.StatusNotFound)

	resp = ta.json(t, "POST", "/admin/fields/"+added.ID+"/position", map[string]any{"position": 0}, "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	fields := decode[[]domain.CategoryField](t, resp)
	if fields[0].ID != added.ID {
		t.Fatalf("moved field not first: %+v", fields)
	}
	for i, f := range fields {
		if f.Position != i {
			t.Fatalf("positions not contiguous: %+v", fields)
		}
	}

	resp = ta.json(t, "PATCH", "/admin/fields/"+added.ID, map[string]any{"is_required": true}, "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	if f := decode[domain.CategoryField](t, resp); !f.IsRequired {
		t.Fatalf("required flag not saved: %+v", f)
	}

	wantStatus(t, ta.do(t, "DELETE", "/admin/fields/"+added.ID, nil, "", "sid-admin"), http.StatusNoContent)
	wantStatus(t, ta.do(t, "DELETE", "/admin/fields/"+added.ID, nil, "", "sid-admin"), http.StatusNotFound)

	resp = ta.do(t, "GET", base, nil, "", "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	if fields := decode[[]domain.CategoryField](t, resp); len(fields) != 3 || fields[0].FieldKey != "pickup_date" {
		t.Fatalf("unexpected schema after removal: %+v", fields)
	}

	resp = ta.json(t, "PATCH", "/admin/categories/torte-in-vetrina", map[string]any{"min_lead_days": -1}, "sid-admin")
	wantStatus(t, resp, http.StatusBadRequest)
}

func submitVetrina(t *testing.T, ta *testApp, date string) domain.Order {
	t.Helper()
	resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", vetrinaOrder(date), "")
	wantStatus(t, resp, http.StatusCreated)
	return decode[domain.Order](t, resp)
}

func TestAdminOrderLifecycle(t *testing.T) {
	ta := newApp(t)
	o := submitVetrina(t, ta, "2025-01-03")
	path := "/admin/orders/" + o.ID

	resp := ta.do(t, "GET", path, nil, "", "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	got := decode[struct {
		Order       domain.Order    `json:"order"`
		StatusLabel string          `json:"status_label"`
		Answers     []domain.Answer `json:"answers"`
	}](t, resp)
	if got.Order.ID != o.ID || got.StatusLabel == "" || len(got.Answers) != 3 {
		t.Fatalf("unexpected detail %+v", got)
	}

	resp = ta.json(t, "POST", path+"/status", map[string]string{"status": "confirmed"}, "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	if s := decode[domain.Order](t, resp).Status; s != domain.StatusConfirmed {
		t.Fatalf("want confirmed, got %s", s)
	}
	wantStatus(t, ta.json(t, "POST", path+"/status", map[string]string{"status": "received"}, "sid-admin"), http.StatusConflict)
	wantStatus(t, ta.json(t, "POST", path+"/status", map[string]string{"status": "lost"}, "sid-admin"), http.StatusConflict)

	resp = ta.do(t, "POST", path+"/status", strings.NewReader("status=ready"), "application/x-www-form-urlencoded", "sid-admin")
	wantStatus(t, resp, http.StatusOK)

	wantStatus(t, ta.do(t, "POST", path+"/archive", nil, "", "sid-admin"), http.StatusOK)
	wantStatus(t, ta.do(t, "POST", path+"/archive", nil, "", "sid-admin"), http.StatusConflict)
	wantStatus(t, ta.json(t, "POST", path+"/status", map[string]string{"status": "delivered"}, "sid-admin"), http.StatusConflict)

	resp = ta.do(t, "GET", "/admin/orders", nil, "", "sid-admin")
	if live := decode[[]domain.Order](t, resp); len(live) != 0 {
		t.Fatalf("archived order still live: %+v", live)
	}
	resp = ta.do(t, "GET", "/admin/orders?archived=1&date=2025-01-03", nil, "", "sid-admin")
	if arch := decode[[]domain.Order](t, resp); len(arch) != 1 || arch[0].ID != o.ID {
		t.Fatalf("archived order not listed by date: %+v", arch)
	}
	resp = ta.do(t, "GET", "/admin/orders?archived=1&date=2025-01-04", nil, "", "sid-admin")
	if arch := decode[[]domain.Order](t, resp); len(arch) != 0 {
		t.Fatalf("date filter ignored: %+v", arch)
	}
}

func TestAdminDeleteReleasesCapacity(t *testing.T) {
	ta := newApp(t)
	wantStatus(t, ta.json(t, "PUT", "/admin/categories/torte-in-vetrina/capacity/2025-01-04", map[string]any{"max_orders": 2}, "sid-admin"), http.StatusOK)
	o := submitVetrina(t, ta, "2025-01-04")

	var current int
	_ = ta.db.Get(&current, `SELECT current_orders FROM category_capacity WHERE category_id = 'torte-in-vetrina' AND capacity_date = '2025-01-04'`)
	if current != 1 {
		t.Fatalf("want one reserved slot, got %d", current)
	}

	wantStatus(t, ta.do(t, "DELETE", "/admin/orders/"+o.ID, nil, "", "sid-admin"), http.StatusNoContent)
	wantStatus(t, ta.do(t, "GET", "/admin/orders/"+o.ID, nil, "", "sid-admin"), http.StatusNotFound)
	wantStatus(t, ta.do(t, "DELETE", "/admin/orders/"+o.ID, nil, "", "sid-admin"), http.StatusNotFound)

	_ = ta.db.Get(&current, `SELECT current_orders FROM category_capacity WHERE category_id = 'torte-in-vetrina' AND capacity_date = '2025-01-04'`)
	if current != 0 {
		t.Fatalf("slot not released, current=%d", current)
	}
	var answers int
	_ = ta.db.Get(&answers, `SELECT COUNT(*) FROM order_field_values WHERE order_id = ?`, o.ID)
	if answers != 0 {
		t.Fatalf("answers survived delete: %d", answers)
	}

	wantStatus(t, ta.json(t, "PUT", "/admin/categories/torte-in-vetrina/capacity/2025-01-04", map[string]any{"max_orders": -1}, "sid-admin"), http.StatusBadRequest)
	wantStatus(t, ta.json(t, "PUT", "/admin/categories/nope/capacity/2025-01-04", map[string]any{"max_orders": 1}, "sid-admin"), http.StatusNotFound)
	wantStatus(t, ta.json(t, "PUT", "/admin/categories/torte-in-vetrina/capacity/04-01-2025", map[string]any{"max_orders": 1}, "sid-admin"), http.StatusBadRequest)
}

func TestReceiptEscapesAnswers(t *testing.T) {
	ta := newApp(t)
	wantStatus(t, ta.json(t, "POST", "/admin/categories/torte-in-vetrina/fields", map[string]any{"field_key": "inscription"}, "sid-admin"), http.StatusCreated)

	payload := vetrinaOrder("2025-01-03")
	payload["values"].(map[string]string)["inscription"] = "<b>Auguri</b>"
	resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", payload, "")
	wantStatus(t, resp, http.StatusCreated)
	o := decode[domain.Order](t, resp)

	resp = ta.do(t, "GET", "/admin/orders/"+o.ID+"/receipt", nil, "", "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	s := string(body)
	if strings.Contains(s, "<b>Auguri") {
		t.Fatalf("answer rendered unescaped: %s", s)
	}
	if !strings.Contains(s, "&lt;b&gt;Auguri") || !strings.Contains(s, "TORTE IN VETRINA") || !strings.Contains(s, "Scritta") {
		t.Fatalf("receipt missing content: %s", s)
	}

	wantStatus(t, ta.do(t, "GET", "/admin/orders/missing/receipt", nil, "", "sid-admin"), http.StatusNotFound)
}

func TestAdminDeletesCustomerKeepingOrders(t *testing.T) {
	ta := newApp(t)

	resp := ta.json(t, "POST", "/api/v1/categories/torte-in-vetrina/orders", vetrinaOrder("2025-01-03"), "sid-user")
	wantStatus(t, resp, http.StatusCreated)
	o := decode[domain.Order](t, resp)

	resp = ta.do(t, "GET", "/admin/users", nil, "", "sid-admin")
	wantStatus(t, resp, http.StatusOK)
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "giulia@borgo.test") || strings.Contains(string(raw), "staff@borgo.test") || strings.Contains(string(raw), "$2") {
		t.Fatalf("unexpected customer list: %s", raw)
	}

	wantStatus(t, ta.do(t, "DELETE", "/admin/users/u-admin", nil, "", "sid-admin"), http.StatusConflict)
	wantStatus(t, ta.do(t, "DELETE", "/admin/users/u-nobody", nil, "", "sid-admin"), http.StatusNotFound)

	entries := captureLogs(t, func() {
		wantStatus(t, ta.do(t, "DELETE", "/admin/users/u-giulia", nil, "", "sid-admin"), http.StatusNoContent)
	})
	if !hasAction(entries, "admin.users.delete") {
		t.Fatal("expected admin.users.delete audit log")
	}

	wantStatus(t, ta.do(t, "GET", "/api/v1/me/orders", nil, "", "sid-user"), http.StatusUnauthorized)
	resp = ta.do(t, "GET", "/admin/orders/"+o.ID, nil, "", "sid-admin")
	wantStatus(t, resp, http.StatusOK)
}
