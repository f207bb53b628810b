package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, http.StatusCreated, map[string]string{"message": "Video saved"})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	var decoded map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decoded["message"] != "Video saved" {
		t.Errorf("unexpected body: %v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteError(rec, http.StatusForbidden, "forbidden")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Error != "forbidden" {
		t.Errorf("expected error=forbidden, got %q", body.Error)
	}
	if body.Type != "" || body.MissingFields != nil {
		t.Errorf("plain errors must omit optional fields: %+v", body)
	}
}

func TestWriteValidationError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteValidationError(rec, "Invalid data", []string{"youtubeUrl", "videoId"})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Error != "Invalid data" {
		t.Errorf("expected error=Invalid data, got %q", body.Error)
	}
	if len(body.MissingFields) != 2 || body.MissingFields[0] != "youtubeUrl" || body.MissingFields[1] != "videoId" {
		t.Errorf("unexpected missingFields: %v", body.MissingFields)
	}
}

func TestWriteTypedError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteTypedError(rec, http.StatusUnauthorized, "user not found", "USER_NOT_FOUND")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.Type != "USER_NOT_FOUND" {
		t.Errorf("expected type USER_NOT_FOUND, got %q", body.Type)
	}
}

func TestErrorBody_OmitsEmptyOptionalFields(t *testing.T) {
	data, err := json.Marshal(ErrorBody{Error: "nope"})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"error":"nope"}` {
		t.Errorf("unexpected encoding: %s", data)
	}
}
