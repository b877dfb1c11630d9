package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type fakeCredentialStore struct {
	hashed string
}

func (f *fakeCredentialStore) GetCredential(key string) (string, error) {
	return f.hashed, nil
}

func newTestAPIServer(t *testing.T, apiKey string) *APIServer {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test key: %v", err)
	}
	return NewAPIServer(NewService(), &fakeCredentialStore{hashed: string(hashed)})
}

func Test_AddEndpointAuthorization(t *testing.T) {
	tests := map[string]struct {
		key          string
		expectedCode int
	}{
		"valid key records":        {key: "super-secret", expectedCode: http.StatusOK},
		"wrong key unauthorized":   {key: "guess", expectedCode: http.StatusUnauthorized},
		"missing key unauthorized": {key: "", expectedCode: http.StatusUnauthorized},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			api := newTestAPIServer(t, "super-secret")
			body := `{"student_id":"S1","amount":100,"type":"grant"}`
			req := httptest.NewRequest(http.MethodPost, "/admin/transactions/add", strings.NewReader(body))
			if test.key != "" {
				req.Header.Set("X-Api-Key", test.key)
			}
			rec := httptest.NewRecorder()

			api.handleAdd(rec, req)

			if rec.Code != test.expectedCode {
				t.Fatalf("expected status %d, got %d: %s", test.expectedCode, rec.Code, rec.Body.String())
			}
			if test.expectedCode == http.StatusOK && api.service.Len() != 1 {
				t.Errorf("expected one logged transaction, got %d", api.service.Len())
			}
			if test.expectedCode != http.StatusOK && api.service.Len() != 0 {
				t.Error("expected no transaction after rejected add")
			}
		})
	}
}

func Test_AddEndpointReturnsFlaggedTransaction(t *testing.T) {
	api := newTestAPIServer(t, "super-secret")
	body := `{"student_id":"S1","amount":60000,"type":"tuition"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/transactions/add", strings.NewReader(body))
	req.Header.Set("X-Api-Key", "super-secret")
	rec := httptest.NewRecorder()

	api.handleAdd(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tx Transaction
	if err := json.NewDecoder(rec.Body).Decode(&tx); err != nil {
		t.Fatalf("failed to decode transaction: %v", err)
	}
	if !tx.Flagged {
		t.Error("expected over-threshold tuition to come back flagged")
	}
	if tx.StudentID != "S1" || tx.Amount != 60000 {
		t.Errorf("unexpected transaction: %+v", tx)
	}
}

func Test_AddEndpointRejectsBadInput(t *testing.T) {
	tests := map[string]struct {
		body         string
		expectedCode int
	}{
		"malformed json":     {body: "{", expectedCode: http.StatusBadRequest},
		"missing student_id": {body: `{"amount":100,"type":"grant"}`, expectedCode: http.StatusBadRequest},
		"missing type":       {body: `{"student_id":"S1","amount":100}`, expectedCode: http.StatusBadRequest},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			api := newTestAPIServer(t, "super-secret")
			req := httptest.NewRequest(http.MethodPost, "/admin/transactions/add", strings.NewReader(test.body))
			req.Header.Set("X-Api-Key", "super-secret")
			rec := httptest.NewRecorder()

			api.handleAdd(rec, req)
			if rec.Code != test.expectedCode {
				t.Errorf("expected status %d, got %d", test.expectedCode, rec.Code)
			}
		})
	}
}

func Test_AllEndpoint(t *testing.T) {
	api := newTestAPIServer(t, "super-secret")
	api.service.Add("S1", 100, "grant")
	api.service.Add("S2", 200, "tuition")

	req := httptest.NewRequest(http.MethodGet, "/admin/transactions/all", nil)
	req.Header.Set("X-Api-Key", "super-secret")
	rec := httptest.NewRecorder()
	api.handleAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var txs []Transaction
	if err := json.NewDecoder(rec.Body).Decode(&txs); err != nil {
		t.Fatalf("failed to decode transactions: %v", err)
	}
	if len(txs) != 2 || txs[0].StudentID != "S1" || txs[1].StudentID != "S2" {
		t.Errorf("expected both transactions in order, got %+v", txs)
	}
}

func Test_ByStudentEndpoint(t *testing.T) {
	api := newTestAPIServer(t, "super-secret")
	api.service.Add("S1", 100, "grant")
	api.service.Add("S2", 200, "tuition")

	req := httptest.NewRequest(http.MethodGet, "/admin/transactions/student?student_id=S1", nil)
	req.Header.Set("X-Api-Key", "super-secret")
	rec := httptest.NewRecorder()
	api.handleByStudent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var txs []Transaction
	if err := json.NewDecoder(rec.Body).Decode(&txs); err != nil {
		t.Fatalf("failed to decode transactions: %v", err)
	}
	if len(txs) != 1 || txs[0].StudentID != "S1" {
		t.Errorf("expected only S1 transactions, got %+v", txs)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/transactions/student", nil)
	req.Header.Set("X-Api-Key", "super-secret")
	rec = httptest.NewRecorder()
	api.handleByStudent(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without student_id, got %d", rec.Code)
	}
}
