package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uds-ttfpp/TTFPP-Backend/internal/placement"
)

// fakeDirectory implements placement.Directory without a database.
type fakeDirectory struct {
	info placement.Info
	err  error
}

func (f fakeDirectory) GetPlacement(ctx context.Context, enrollmentID string) (placement.Info, error) {
	return f.info, f.err
}

func ptr(v float64) *float64 { return &v }

// newTestRecorder builds a Recorder whose rejection paths never reach the
// database, so these tests run without one.
func newTestRecorder(dir placement.Directory) *Recorder {
	return &Recorder{
		Directory:       dir,
		ThresholdMeters: 200,
	}
}

// TestSubmit_PlacementNotFound verifies that a missing placement maps to
// ErrPlacementNotFound before any distance math or write happens.
func TestSubmit_PlacementNotFound(t *testing.T) {
	rec := newTestRecorder(fakeDirectory{err: placement.ErrNotFound})

	_, err := rec.Submit(context.Background(), Submission{
		UserID:       "u1",
		EnrollmentID: "missing",
		Latitude:     9.40,
		Longitude:    -0.84,
		CapturedAt:   time.Now(),
	}, ModeOnline)

	if !errors.Is(err, ErrPlacementNotFound) {
		t.Errorf("expected ErrPlacementNotFound, got %v", err)
	}
}

// TestSubmit_UnverifiedCommunity verifies that a placement whose community has
// no anchor coordinates is treated the same as a missing placement.
func TestSubmit_UnverifiedCommunity(t *testing.T) {
	start := time.Now().AddDate(0, 0, -3)
	rec := newTestRecorder(fakeDirectory{info: placement.Info{
		UserID:    "u1",
		StartDate: &start,
		// AnchorLat/AnchorLng nil: not GPS-verified yet.
	}})

	_, err := rec.Submit(context.Background(), Submission{
		UserID:       "u1",
		EnrollmentID: "e1",
		Latitude:     9.40,
		Longitude:    -0.84,
		CapturedAt:   time.Now(),
	}, ModeOnline)

	if !errors.Is(err, ErrPlacementNotFound) {
		t.Errorf("expected ErrPlacementNotFound for unverified community, got %v", err)
	}
}

// TestSubmit_EnrollmentOwnedByAnotherStudent verifies that a student cannot
// submit against someone else's enrollment: the placement's owner must match
// the authenticated user, even when the capture is inside the geofence.
func TestSubmit_EnrollmentOwnedByAnotherStudent(t *testing.T) {
	start := time.Now().AddDate(0, 0, -3)
	rec := newTestRecorder(fakeDirectory{info: placement.Info{
		UserID:    "other-student",
		AnchorLat: ptr(9.40),
		AnchorLng: ptr(-0.84),
		StartDate: &start,
	}})

	for _, mode := range []Mode{ModeOnline, ModeSync} {
		_, err := rec.Submit(context.Background(), Submission{
			UserID:       "u1",
			EnrollmentID: "e1",
			Latitude:     9.40,
			Longitude:    -0.84,
			CapturedAt:   time.Now(),
		}, mode)

		if !errors.Is(err, ErrPlacementNotFound) {
			t.Errorf("mode %v: expected ErrPlacementNotFound for foreign enrollment, got %v", mode, err)
		}
	}
}

// TestSubmit_OutOfRange verifies the hard geofence rule: a capture beyond the
// threshold is rejected with the computed distance and no row is written.
func TestSubmit_OutOfRange(t *testing.T) {
	start := time.Now().AddDate(0, 0, -3)
	rec := newTestRecorder(fakeDirectory{info: placement.Info{
		UserID:    "u1",
		AnchorLat: ptr(9.40),
		AnchorLng: ptr(-0.84),
		StartDate: &start,
	}})

	// ~1.1 km north of the anchor.
	_, err := rec.Submit(context.Background(), Submission{
		UserID:       "u1",
		EnrollmentID: "e1",
		Latitude:     9.41,
		Longitude:    -0.84,
		CapturedAt:   time.Now(),
	}, ModeOnline)

	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError, got %v", err)
	}
	if oor.Distance < 1000 || oor.Distance > 1250 {
		t.Errorf("expected ~1112m distance in error, got %f", oor.Distance)
	}
	if oor.Threshold != 200 {
		t.Errorf("expected threshold 200 in error, got %f", oor.Threshold)
	}
}

// TestSubmit_OutOfRangeAppliesToSyncToo verifies that the sync path enforces
// the same geofence — offline capture does not bypass the distance check.
func TestSubmit_OutOfRangeAppliesToSyncToo(t *testing.T) {
	start := time.Now().AddDate(0, 0, -3)
	rec := newTestRecorder(fakeDirectory{info: placement.Info{
		UserID:    "u1",
		AnchorLat: ptr(9.40),
		AnchorLng: ptr(-0.84),
		StartDate: &start,
	}})

	_, err := rec.Submit(context.Background(), Submission{
		UserID:       "u1",
		EnrollmentID: "e1",
		Latitude:     9.41,
		Longitude:    -0.84,
		CapturedAt:   time.Now(),
	}, ModeSync)

	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected OutOfRangeError on sync path, got %v", err)
	}
}

// TestSubmitRequest_Validation exercises the strict payload schema.
func TestSubmitRequest_Validation(t *testing.T) {
	lat, lng := 9.40, -0.84

	cases := []struct {
		name    string
		req     SubmitRequest
		wantErr bool
	}{
		{"valid", SubmitRequest{EnrollmentID: "e1", Latitude: &lat, Longitude: &lng}, false},
		{"missing enrollment", SubmitRequest{Latitude: &lat, Longitude: &lng}, true},
		{"missing coordinates", SubmitRequest{EnrollmentID: "e1"}, true},
		{"bad status", SubmitRequest{EnrollmentID: "e1", Latitude: &lat, Longitude: &lng, Status: "late"}, true},
		{"absent ok", SubmitRequest{EnrollmentID: "e1", Latitude: &lat, Longitude: &lng, Status: "absent"}, false},
		{"bad captured_at", SubmitRequest{EnrollmentID: "e1", Latitude: &lat, Longitude: &lng, CapturedAt: "yesterday"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.toSubmission("u1")
			if tc.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

// TestSubmitRequest_LatitudeBounds verifies coordinate range checks.
func TestSubmitRequest_LatitudeBounds(t *testing.T) {
	lat, lng := 91.0, -0.84
	req := SubmitRequest{EnrollmentID: "e1", Latitude: &lat, Longitude: &lng}
	if _, err := req.toSubmission("u1"); err == nil {
		t.Error("expected error for latitude > 90")
	}
}

// TestSubmitRequest_DefaultsStatusAndCapturedAt verifies that status defaults
// to present and captured_at to roughly now.
func TestSubmitRequest_DefaultsStatusAndCapturedAt(t *testing.T) {
	lat, lng := 9.40, -0.84
	req := SubmitRequest{EnrollmentID: "e1", Latitude: &lat, Longitude: &lng}

	sub, err := req.toSubmission("u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Status != "" {
		// The recorder applies the present default; the request keeps it empty.
		t.Errorf("expected empty status passed through, got %q", sub.Status)
	}
	if time.Since(sub.CapturedAt) > time.Minute {
		t.Errorf("expected captured_at to default to now, got %v", sub.CapturedAt)
	}
}

// TestEntryToSubmission_RequiresCapturedAt verifies that sync entries must
// carry their capture timestamp — it determines which calendar date the
// record belongs to.
func TestEntryToSubmission_RequiresCapturedAt(t *testing.T) {
	lat, lng := 9.40, -0.84
	entry := SyncEntry{EntryID: "q1", EnrollmentID: "e1", Latitude: &lat, Longitude: &lng}

	if _, err := entryToSubmission("u1", entry); err == nil {
		t.Error("expected error for missing captured_at")
	}

	entry.CapturedAt = time.Now().Format(time.RFC3339)
	sub, err := entryToSubmission("u1", entry)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.ClientEntryID != "q1" {
		t.Errorf("expected entry ID carried through, got %q", sub.ClientEntryID)
	}
}

// TestDateOnly verifies capture times collapse to their UTC calendar date.
func TestDateOnly(t *testing.T) {
	in := time.Date(2026, time.May, 12, 17, 45, 3, 0, time.UTC)
	got := dateOnly(in)
	want := time.Date(2026, time.May, 12, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
