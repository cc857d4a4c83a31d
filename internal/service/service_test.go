package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/palmyard/backend/internal/ai"
	"github.com/palmyard/backend/internal/analytics"
	"github.com/palmyard/backend/internal/models"
	"github.com/palmyard/backend/internal/ticketcsv"
)

type fakeTickets struct {
	stored  []models.Ticket
	failErr error
}

func (f *fakeTickets) UpsertTickets(_ context.Context, ts []models.Ticket) (int64, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	f.stored = append(f.stored, ts...)
	return int64(len(ts)), nil
}

func (f *fakeTickets) ListTickets(context.Context) ([]models.Ticket, error) {
	return f.stored, nil
}

type fakeRuns struct {
	status  map[string]string
	summary map[string][]byte
	last    string
}

func newFakeRuns() *fakeRuns {
	return &fakeRuns{status: map[string]string{}, summary: map[string][]byte{}}
}

func (f *fakeRuns) CreateRun(_ context.Context, status string) (string, error) {
	id := "run-1"
	f.status[id] = status
	f.last = id
	return id, nil
}

func (f *fakeRuns) FinishRun(_ context.Context, id, status string, summary []byte) error {
	f.status[id] = status
	f.summary[id] = summary
	return nil
}

func (f *fakeRuns) GetLatestRun(context.Context) (models.ImportRun, error) {
	if f.last == "" {
		return models.ImportRun{}, ErrNotFound
	}
	return models.ImportRun{ID: f.last, Status: f.status[f.last], Summary: f.summary[f.last]}, nil
}

type stubWeather struct {
	records []models.WeatherRecord
	err     error
	calls   int
}

func (s *stubWeather) Daily(context.Context, string, string) ([]models.WeatherRecord, error) {
	s.calls++
	return s.records, s.err
}

type failingNarrator struct{}

func (failingNarrator) Narrate(context.Context, analytics.InsightContext) (ai.Insight, error) {
	return ai.Insight{}, ai.RateLimitError{RetryAfter: time.Second}
}

const batch = `No Tiket,Tanggal,Jam Masuk,Jam Keluar,No Polisi,Lokasi,Netto,Janjang
T1,01/03/2024,07:00,07:30,BK 1,Blok A,1000,50
T2,2024-03-02,08:00,08:20,BK 2,Blok B,800,x
T1,2024-03-03,09:00,09:30,BK 1,Blok A,900,45
T3,31/02/2024,09:00,09:30,BK 3,Blok C,700,30
T4,2024-03-04,10:00,10:40,BK 1,Blok A,1200,60
`

func TestImportSummary(t *testing.T) {
	tickets := &fakeTickets{}
	runs := newFakeRuns()
	svc := &ImportService{Tickets: tickets, Runs: runs, Parser: ticketcsv.NewParser(), Logger: zerolog.Nop()}

	sum, err := svc.Import(context.Background(), strings.NewReader(batch))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if sum.Parsed != 3 || sum.Upserted != 3 {
		t.Fatalf("expected 3 parsed and upserted, got %+v", sum)
	}
	if sum.Duplicates != 1 || sum.Degraded != 1 {
		t.Fatalf("expected 1 duplicate and 1 degraded, got %+v", sum)
	}
	if sum.Reasons[ticketcsv.SkipInvalidDate] != 1 || sum.Reasons[ticketcsv.SkipHeader] != 1 {
		t.Fatalf("unexpected reasons %+v", sum.Reasons)
	}
	if tickets.stored[0].Date != "2024-03-01" || tickets.stored[0].NetWeight != 1000 {
		t.Fatalf("first occurrence should win, got %+v", tickets.stored[0])
	}
	if runs.status[sum.RunID] != RunStatusSuccess {
		t.Fatalf("expected run SUCCESS, got %s", runs.status[sum.RunID])
	}

	var stored ImportSummary
	if err := json.Unmarshal(runs.summary[sum.RunID], &stored); err != nil {
		t.Fatalf("summary json: %v", err)
	}
	if stored.Parsed != 3 {
		t.Fatalf("stored summary parsed=%d", stored.Parsed)
	}

	view, err := svc.LatestRun(context.Background())
	if err != nil || view.Summary == nil || view.Summary.Upserted != 3 {
		t.Fatalf("latest run view %+v err=%v", view, err)
	}
}

func TestImportEmptyBatch(t *testing.T) {
	tickets := &fakeTickets{}
	runs := newFakeRuns()
	svc := &ImportService{Tickets: tickets, Runs: runs, Parser: ticketcsv.NewParser(), Logger: zerolog.Nop()}

	_, err := svc.Import(context.Background(), strings.NewReader("No Tiket,Tanggal\n,,,\n"))
	if !errors.Is(err, ticketcsv.ErrEmptyImport) {
		t.Fatalf("expected ErrEmptyImport, got %v", err)
	}
	if len(tickets.stored) != 0 {
		t.Fatalf("nothing should be written")
	}
	if runs.status["run-1"] != RunStatusEmpty {
		t.Fatalf("expected EMPTY run, got %s", runs.status["run-1"])
	}
}

func TestImportUpsertFailure(t *testing.T) {
	runs := newFakeRuns()
	svc := &ImportService{Tickets: &fakeTickets{failErr: errors.New("db down")}, Runs: runs, Parser: ticketcsv.NewParser(), Logger: zerolog.Nop()}

	if _, err := svc.Import(context.Background(), strings.NewReader(batch)); err == nil {
		t.Fatalf("expected error")
	}
	if runs.status["run-1"] != RunStatusFailed {
		t.Fatalf("expected FAILED run, got %s", runs.status["run-1"])
	}
}

func history() []models.Ticket {
	return []models.Ticket{
		{ID: "T1", Date: "2024-03-01", TimeIn: "07:00", TimeOut: "07:30", PlateNumber: "BK 1", Location: "Blok A", NetWeight: 1000, BunchCount: 50},
		{ID: "T2", Date: "2024-03-02", TimeIn: "08:00", TimeOut: "08:20", PlateNumber: "BK 2", Location: "Blok B", NetWeight: 800, BunchCount: 40},
		{ID: "T3", Date: "2024-03-04", TimeIn: "10:00", TimeOut: "10:40", PlateNumber: "BK 1", Location: "Blok A", NetWeight: 1200, BunchCount: 60},
	}
}

func newDashboard(wx *stubWeather) *DashboardService {
	svc := &DashboardService{
		History:  StaticTickets(history()),
		Baseline: analytics.DefaultDailyTarget,
		Jitter:   0.1,
		Location: time.UTC,
		Clock:    func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) },
		Logger:   zerolog.Nop(),
	}
	if wx != nil {
		svc.Weather = wx
	}
	return svc
}

func TestDashboardDeterministicForecast(t *testing.T) {
	svc := newDashboard(nil)
	q := Query{Window: analytics.ParseWindow("month", "", "")}

	a, err := svc.Dashboard(context.Background(), q)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	b, _ := svc.Dashboard(context.Background(), q)
	if a.Forecast.TotalProjected != b.Forecast.TotalProjected {
		t.Fatalf("forecast should be stable without a configured seed")
	}
	if a.KPI.Trips != 3 || a.KPI.TotalNet != 3000 {
		t.Fatalf("unexpected kpi %+v", a.KPI)
	}
	if len(a.Locations) != 2 {
		t.Fatalf("expected 2 locations, got %v", a.Locations)
	}
}

func TestDashboardWeatherFailureDegrades(t *testing.T) {
	wx := &stubWeather{err: errors.New("upstream 500")}
	svc := newDashboard(wx)

	d, err := svc.Dashboard(context.Background(), Query{Window: analytics.ParseWindow("all", "", "")})
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if wx.calls != 1 {
		t.Fatalf("expected one weather call, got %d", wx.calls)
	}
	for _, p := range d.ForecastWeather {
		if p.Condition != models.WeatherUnknown {
			t.Fatalf("expected unknown weather on %s, got %s", p.Date, p.Condition)
		}
	}
}

func TestTicketsAndExport(t *testing.T) {
	svc := newDashboard(nil)
	q := Query{
		Window: analytics.ParseWindow("all", "", ""),
		Search: analytics.Search{Category: analytics.SearchPlate, Query: "bk 1"},
	}

	ts, err := svc.Tickets(context.Background(), q)
	if err != nil || len(ts) != 2 {
		t.Fatalf("expected 2 tickets for BK 1, got %d err=%v", len(ts), err)
	}

	var buf bytes.Buffer
	if err := svc.Export(context.Background(), &buf, q); err != nil {
		t.Fatalf("export: %v", err)
	}
	res, err := ticketcsv.NewParser().Parse(&buf)
	if err != nil {
		t.Fatalf("re-parse export: %v", err)
	}
	if len(res.Tickets) != 2 || res.Tickets[1].ID != "T3" {
		t.Fatalf("unexpected export round trip %+v", res.Tickets)
	}
}

func TestLocationReportNotFound(t *testing.T) {
	svc := newDashboard(nil)
	if _, err := svc.LocationReport(context.Background(), "Blok Z"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	rep, err := svc.LocationReport(context.Background(), "Blok A")
	if err != nil || rep.Trips != 2 {
		t.Fatalf("unexpected report %+v err=%v", rep, err)
	}
}

func TestForecastView(t *testing.T) {
	wx := &stubWeather{records: []models.WeatherRecord{{Date: "2024-03-05", Condition: models.WeatherRain, RainfallMM: 12}}}
	svc := newDashboard(wx)

	fc, err := svc.Forecast(context.Background(), 3)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(fc.Weather) != len(fc.Points) {
		t.Fatalf("weather must align with points")
	}
	var rain bool
	for _, p := range fc.Weather {
		if p.Date == "2024-03-05" && p.Condition == models.WeatherRain {
			rain = true
		}
	}
	if !rain {
		t.Fatalf("expected rain joined on 2024-03-05")
	}
}

func TestInsightGenerate(t *testing.T) {
	svc := &InsightService{Dashboard: newDashboard(nil), Narrator: ai.MockNarrator{ModelVersion: "mock"}, Logger: zerolog.Nop()}

	res, err := svc.Generate(context.Background(), Query{Window: analytics.ParseWindow("all", "", "")})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if res.Context.Reference != "2024-03-04" {
		t.Fatalf("unexpected reference %s", res.Context.Reference)
	}
	if len(res.Context.Weather) != 11 {
		t.Fatalf("expected 11 weather days, got %d", len(res.Context.Weather))
	}
	if res.Insight.Text == "" || res.Insight.ModelVersion != "mock" {
		t.Fatalf("unexpected insight %+v", res.Insight)
	}
}

func TestInsightNarratorError(t *testing.T) {
	svc := &InsightService{Dashboard: newDashboard(nil), Narrator: failingNarrator{}, Logger: zerolog.Nop()}

	_, err := svc.Generate(context.Background(), Query{Window: analytics.ParseWindow("all", "", "")})
	var rl ai.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}
