// Fieldsync is the offline-capable field client: it captures a geolocated
// check-in against the attendance API, queues it locally when the network is
// down, and drains the queue once connectivity returns.
//
// Usage:
//
//	fieldsync capture --server URL --session COOKIE --enrollment ID --lat .. --lng ..
//	fieldsync sync    --server URL --session COOKIE
//	fieldsync status  --server URL --session COOKIE --enrollment ID
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/config"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/geo"
	"github.com/uds-ttfpp/TTFPP-Backend/internal/offline"
)

func main() {
	_ = godotenv.Load(".env.local")

	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	server := fs.String("server", envOr("TTFPP_SERVER", "http://localhost:5050"), "API base URL")
	session := fs.String("session", os.Getenv("TTFPP_SESSION"), "Session cookie value")
	queuePath := fs.String("queue", defaultQueuePath(), "Offline queue file")
	enrollment := fs.String("enrollment", "", "Enrollment (placement) ID")
	lat := fs.Float64("lat", 0, "Captured latitude")
	lng := fs.Float64("lng", 0, "Captured longitude")
	status := fs.String("status", "present", "Attendance status: present or absent")
	anchorLat := fs.Float64("anchor-lat", 0, "Community anchor latitude (optional, for local range check)")
	anchorLng := fs.Float64("anchor-lng", 0, "Community anchor longitude (optional)")
	threshold := fs.Float64("threshold", defaultThreshold(), "Acceptance radius in meters for the local range check")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	queue, err := offline.Open(*queuePath)
	if err != nil {
		fatalf("open queue: %v", err)
	}

	switch cmd {
	case "capture":
		if *enrollment == "" {
			fatalf("--enrollment is required")
		}
		capture(ctx, queue, *server, *session, *enrollment, *lat, *lng, *status, *anchorLat, *anchorLng, *threshold)
	case "sync":
		sync(ctx, queue, *server, *session)
	case "status":
		if *enrollment == "" {
			fatalf("--enrollment is required")
		}
		showStatus(ctx, *server, *session, *enrollment)
	default:
		usage()
	}
}

func capture(ctx context.Context, queue *offline.Queue, server, session, enrollment string, lat, lng float64, status string, anchorLat, anchorLng, threshold float64) {
	// Advisory local range check when the anchor is known. The server
	// re-validates regardless; this just saves a round-trip.
	if anchorLat != 0 || anchorLng != 0 {
		fix := geo.Fix{Lat: lat, Lng: lng}
		verdict := geo.Evaluate(&fix, geo.Fix{Lat: anchorLat, Lng: anchorLng}, threshold)
		if !verdict.InRange {
			fmt.Printf("Warning: %.0fm from the community anchor; the server will likely reject this.\n", *verdict.Distance)
		}
	}

	capturedAt := time.Now()
	payload, _ := json.Marshal(map[string]any{
		"enrollment_id": enrollment,
		"latitude":      lat,
		"longitude":     lng,
		"status":        status,
		"captured_at":   capturedAt.Format(time.RFC3339),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/attendance/submit", bytes.NewReader(payload))
	if err != nil {
		fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "session_id", Value: session})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		// Network down: divert the same payload into the offline queue. From
		// the student's point of view their attendance was taken.
		entry, qerr := queue.Enqueue(offline.Entry{
			EnrollmentID: enrollment,
			Latitude:     lat,
			Longitude:    lng,
			Status:       status,
			CapturedAt:   capturedAt,
		})
		if qerr != nil {
			fatalf("offline queue failed: %v", qerr)
		}
		fmt.Printf("Offline — attendance captured (%s), will sync when back online. %d pending.\n",
			entry.CapturedAt.Format("2006-01-02 15:04"), queue.Len())
		return
	}
	defer resp.Body.Close()

	var body struct {
		Record struct {
			WeekNumber int    `json:"week_number"`
			DayNumber  int    `json:"day_number"`
			Status     string `json:"status"`
		} `json:"record"`
		Distance  float64 `json:"distance"`
		Error     string  `json:"error"`
		Message   string  `json:"message"`
		Threshold float64 `json:"threshold"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusCreated:
		fmt.Printf("Signed in: week %d, day %d (%.0fm from anchor)\n",
			body.Record.WeekNumber, body.Record.DayNumber, body.Distance)
	case http.StatusForbidden:
		fmt.Println(body.Message)
		os.Exit(1)
	case http.StatusConflict:
		fmt.Println("You already signed in today.")
	default:
		fatalf("submit failed: HTTP %d %s", resp.StatusCode, body.Message)
	}
}

func sync(ctx context.Context, queue *offline.Queue, server, session string) {
	if queue.Len() == 0 {
		fmt.Println("Queue is empty, nothing to sync.")
		return
	}

	rec := &offline.Reconciler{
		Queue:     queue,
		Endpoint:  server + "/attendance/sync",
		SessionID: session,
	}

	report, err := rec.Sync(ctx)
	if err != nil {
		fatalf("sync failed (queue kept): %v", err)
	}

	fmt.Printf("Synced %d, skipped %d, failed %d\n", report.Synced, report.Skipped, report.Failed)
	for _, e := range report.Errors {
		fmt.Println("  " + e)
	}
}

func showStatus(ctx context.Context, server, session, enrollment string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		server+"/attendance/status?enrollment_id="+enrollment, nil)
	if err != nil {
		fatalf("build request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: "session_id", Value: session})

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("status request: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Signed     bool   `json:"signed"`
		ServerDate string `json:"server_date"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fatalf("decode status: %v", err)
	}

	if body.Signed {
		fmt.Printf("Signed in for %s.\n", body.ServerDate)
	} else {
		fmt.Printf("Not signed in yet for %s.\n", body.ServerDate)
	}

	// Warn when the device date disagrees with the server's.
	if local := time.Now().Format("2006-01-02"); local != body.ServerDate {
		fmt.Printf("Note: device date %s differs from server date %s.\n", local, body.ServerDate)
	}
}

// defaultThreshold mirrors the server's acceptance radius, overridable via
// GEOFENCE_METERS so deployments that tune the server can tune the client.
func defaultThreshold() float64 {
	if v := os.Getenv("GEOFENCE_METERS"); v != "" {
		if meters, err := strconv.ParseFloat(v, 64); err == nil && meters > 0 {
			return meters
		}
	}
	return config.DefaultGeofenceMeters
}

func defaultQueuePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "ttfpp-queue.json"
	}
	return filepath.Join(home, ".ttfpp", "queue.json")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fieldsync <capture|sync|status> [flags]")
	os.Exit(2)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
