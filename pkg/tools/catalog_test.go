package tools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCatalogHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Default().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/tools", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got Catalog
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("body not valid JSON: %v", err)
	}
	if len(got.Tools) == 0 {
		t.Fatal("catalog is empty")
	}
	for i, tool := range got.Tools {
		if tool.Function.Name == "" {
			t.Errorf("tools[%d]: missing function name", i)
		}
		if len(tool.Function.Parameters) > 0 && !json.Valid(tool.Function.Parameters) {
			t.Errorf("tools[%d]: parameters schema is not valid JSON", i)
		}
	}
}

func TestCatalogIsStable(t *testing.T) {
	a, _ := json.Marshal(Default())
	b, _ := json.Marshal(Default())
	if string(a) != string(b) {
		t.Error("catalog must not vary between calls")
	}
}
