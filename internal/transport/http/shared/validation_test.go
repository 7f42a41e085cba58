package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("reason", "  ", "is required")
	v.Enum("leaveType", "holiday", []string{"vacation", "sick", "work_from_home"}, "is not supported")
	v.Enum("status", "", []string{"pending"}, "is not supported")
	if _, ok := v.Date("startDate", "2024-02-30"); ok {
		t.Fatal("expected invalid date")
	}
	if got, ok := v.Date("endDate", "2024-02-29"); !ok || got.Format("2006-01-02") != "2024-02-29" {
		t.Fatalf("expected leap day to parse, got %v", got)
	}
	v.UUID("employee", "not-a-uuid")
	v.UUID("employee", "")
	if n := v.Int("month", "13", 1, 12); n != 0 {
		t.Fatalf("expected 0 for out of range month, got %d", n)
	}
	if n := v.Int("year", "2024", 1970, 9999); n != 2024 {
		t.Fatalf("expected 2024, got %d", n)
	}

	issues := v.Issues()
	fields := make([]string, 0, len(issues))
	for _, issue := range issues {
		fields = append(fields, issue.Field)
	}
	if got := strings.Join(fields, ","); got != "employee,leaveType,month,reason,startDate" {
		t.Fatalf("unexpected issue order: %s", got)
	}
}

func TestValidatorReject(t *testing.T) {
	v := NewValidator()
	rec := httptest.NewRecorder()
	if v.Reject(rec, "r1") {
		t.Fatal("expected no rejection without issues")
	}

	v.Add("reason", "is required")
	if !v.Reject(rec, "r1") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Fields []ValidationIssue `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "validation_error" || len(body.Error.Details.Fields) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Reason string `json:"reason"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"trip"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.Reason != "trip" {
		t.Fatalf("unexpected decode result %q, %v", dst.Reason, err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &dst); err != nil {
		t.Fatalf("expected empty body to be accepted, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected malformed body to fail")
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	p := ParsePagination(req, 50, 200)
	if p.Limit != 200 || p.Offset != 20 {
		t.Fatalf("unexpected pagination: %+v", p)
	}

	req = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil)
	p = ParsePagination(req, 50, 200)
	if p.Limit != 50 || p.Offset != 0 {
		t.Fatalf("expected defaults, got %+v", p)
	}
}
