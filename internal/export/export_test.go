package export

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

const testUserID = "550e8400-e29b-41d4-a716-446655440000"

type mockStorage struct {
	putKey  string
	putBody []byte
	putType string
	putErr  error
	calls   int
}

func (m *mockStorage) PutObject(_ context.Context, key string, body []byte, contentType string) error {
	m.calls++
	m.putKey = key
	m.putBody = body
	m.putType = contentType
	return m.putErr
}

func expectClaim(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery("UPDATE users SET last_export_at = now\\(\\)").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username"}).AddRow(testUserID, "djtest"))
}

func TestProcessNextExport_NoUserDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectQuery("UPDATE users SET last_export_at = now\\(\\)").
		WillReturnError(pgx.ErrNoRows)

	storage := &mockStorage{}
	processNextExport(context.Background(), mock, storage, nil)

	if storage.calls != 0 {
		t.Error("nothing to export, storage must not be touched")
	}
}

func TestProcessNextExport_UploadsNormalizedSnapshot(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	expectClaim(mock)
	mock.ExpectQuery("SELECT video_id, title, youtube_url, hotcues FROM videos").
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"video_id", "title", "youtube_url", "hotcues"}).
			AddRow("dQw4w9WgXcQ", "Practice set", "https://youtu.be/dQw4w9WgXcQ",
				[]byte(`{"q":12.5}`)))

	storage := &mockStorage{}
	processNextExport(context.Background(), mock, storage, nil)

	if storage.calls != 1 {
		t.Fatalf("expected one upload, got %d", storage.calls)
	}
	if storage.putKey != "exports/djtest/library.json" {
		t.Errorf("unexpected snapshot key %q", storage.putKey)
	}
	if storage.putType != "application/json" {
		t.Errorf("unexpected content type %q", storage.putType)
	}

	var snapshot struct {
		Username string `json:"username"`
		Videos   []struct {
			VideoID string `json:"videoId"`
			Hotcues map[string]struct {
				Time float64 `json:"time"`
				Name string  `json:"name"`
			} `json:"hotcues"`
		} `json:"videos"`
	}
	if err := json.Unmarshal(storage.putBody, &snapshot); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if snapshot.Username != "djtest" {
		t.Errorf("unexpected username %q", snapshot.Username)
	}
	if len(snapshot.Videos) != 1 || snapshot.Videos[0].Hotcues["q"].Time != 12.5 {
		t.Errorf("legacy cue not normalized in snapshot: %s", storage.putBody)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestProcessNextExport_UploadFailureResetsClaim(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	expectClaim(mock)
	mock.ExpectQuery("SELECT video_id, title, youtube_url, hotcues FROM videos").
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"video_id", "title", "youtube_url", "hotcues"}))
	mock.ExpectExec("UPDATE users SET last_export_at = NULL").
		WithArgs(testUserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	storage := &mockStorage{putErr: errors.New("bucket unavailable")}
	processNextExport(context.Background(), mock, storage, nil)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("claim must be reset after a failed upload: %v", err)
	}
}

func TestProcessNextExport_QueryFailureResetsClaim(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	expectClaim(mock)
	mock.ExpectQuery("SELECT video_id, title, youtube_url, hotcues FROM videos").
		WithArgs(testUserID).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec("UPDATE users SET last_export_at = NULL").
		WithArgs(testUserID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	storage := &mockStorage{}
	processNextExport(context.Background(), mock, storage, nil)

	if storage.calls != 0 {
		t.Error("failed snapshot build must not upload")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSnapshotKey(t *testing.T) {
	if got := SnapshotKey("djtest"); !strings.HasPrefix(got, "exports/djtest/") {
		t.Errorf("unexpected key %q", got)
	}
}
