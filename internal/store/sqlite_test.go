package store

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return newWithDB(db), mock
}

func TestInsert(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO heart_rate").
		WithArgs(72).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.Insert(72); err != nil {
		t.Fatalf("Insert(72): %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestInsertError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO heart_rate").
		WithArgs(72).
		WillReturnError(errors.New("disk full"))

	err := s.Insert(72)
	if err == nil {
		t.Fatal("Insert(72): expected error")
	}
}

func TestRange(t *testing.T) {
	s, mock := newMockStore(t)

	since := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	until := since.Add(time.Hour)

	rows := sqlmock.NewRows([]string{"id", "bpm", "strftime"}).
		AddRow(1, 65, since.Add(time.Minute).Unix()).
		AddRow(2, 72, since.Add(2*time.Minute).Unix())
	mock.ExpectQuery("SELECT id, bpm, strftime").
		WithArgs(since.Unix(), until.Unix()).
		WillReturnRows(rows)

	samples, err := s.Range(since, until)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Range returned %d samples, want 2", len(samples))
	}
	if samples[0].BPM != 65 || samples[1].BPM != 72 {
		t.Errorf("Range BPMs = %d, %d; want 65, 72", samples[0].BPM, samples[1].BPM)
	}
	if got, want := samples[0].RecordedAt, since.Add(time.Minute); !got.Equal(want) {
		t.Errorf("RecordedAt = %v, want %v", got, want)
	}
}

func TestRecent(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "bpm", "strftime"}).
		AddRow(9, 90, time.Now().Unix()).
		AddRow(8, 85, time.Now().Add(-time.Minute).Unix())
	mock.ExpectQuery("SELECT id, bpm, strftime").
		WithArgs(2).
		WillReturnRows(rows)

	samples, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("Recent returned %d samples, want 2", len(samples))
	}
	if samples[0].ID != 9 {
		t.Errorf("Recent first ID = %d, want 9 (newest first)", samples[0].ID)
	}
}

func TestCloseIdempotent(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectClose()

	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	// Second close must not touch the handle again.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
