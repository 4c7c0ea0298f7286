package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/freelance-market/internal/config"
	"github.com/nurpe/freelance-market/internal/model"
)

type stubAnalytics struct {
	professions []model.ProfessionTotal
	clients     []model.ClientTotal
	err         error
	from, to    time.Time
}

func (s *stubAnalytics) ProfessionTotals(_ context.Context, from, to time.Time) ([]model.ProfessionTotal, error) {
	s.from, s.to = from, to
	return s.professions, s.err
}

func (s *stubAnalytics) ClientTotals(_ context.Context, from, to time.Time) ([]model.ClientTotal, error) {
	s.from, s.to = from, to
	return s.clients, s.err
}

type stubExcel struct {
	got model.ClientsReport
}

func (g *stubExcel) Generate(report model.ClientsReport) ([]byte, error) {
	g.got = report
	return []byte("xlsx"), nil
}

var augustPeriod = model.Period{
	Start: time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2020, 8, 31, 23, 59, 59, 0, time.UTC),
}

func newAdminService(repo *stubAnalytics, excel *stubExcel) *AdminService {
	cfg := &config.Config{Admin: config.AdminConfig{BestClientsLimit: 2}}
	return NewAdminService(repo, excel, cfg)
}

func TestBestProfession(t *testing.T) {
	repo := &stubAnalytics{professions: []model.ProfessionTotal{
		{Profession: "Musician", Total: money("21")},
		{Profession: "Programmer", Total: money("2683")},
		{Profession: "Fighter", Total: money("200")},
	}}
	svc := newAdminService(repo, &stubExcel{})

	best, err := svc.BestProfession(context.Background(), augustPeriod)
	require.NoError(t, err)
	assert.Equal(t, "Programmer", best.Profession)
	assert.Equal(t, augustPeriod.Start, repo.from)
	assert.Equal(t, augustPeriod.End, repo.to)
}

func TestBestProfessionAggregatedTotals(t *testing.T) {
	// two terminated contracts paying 30 and 70 to "A" arrive as one grouped row
	repo := &stubAnalytics{professions: []model.ProfessionTotal{
		{Profession: "A", Total: money("100")},
		{Profession: "B", Total: money("90")},
	}}
	svc := newAdminService(repo, &stubExcel{})

	best, err := svc.BestProfession(context.Background(), augustPeriod)
	require.NoError(t, err)
	assert.Equal(t, "A", best.Profession)
	assert.True(t, best.Total.Equal(money("100")))
}

func TestBestProfessionTieBreak(t *testing.T) {
	repo := &stubAnalytics{professions: []model.ProfessionTotal{
		{Profession: "Programmer", Total: money("50")},
		{Profession: "Designer", Total: money("50")},
		{Profession: "Musician", Total: money("10")},
	}}
	svc := newAdminService(repo, &stubExcel{})

	best, err := svc.BestProfession(context.Background(), augustPeriod)
	require.NoError(t, err)
	assert.Equal(t, "Designer", best.Profession)
}

func TestBestProfessionEmpty(t *testing.T) {
	svc := newAdminService(&stubAnalytics{}, &stubExcel{})

	_, err := svc.BestProfession(context.Background(), augustPeriod)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBestProfessionInvalidPeriod(t *testing.T) {
	svc := newAdminService(&stubAnalytics{}, &stubExcel{})

	_, err := svc.BestProfession(context.Background(), model.Period{Start: augustPeriod.End, End: augustPeriod.Start})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.BestProfession(context.Background(), model.Period{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestBestProfessionRepositoryError(t *testing.T) {
	boom := errors.New("boom")
	svc := newAdminService(&stubAnalytics{err: boom}, &stubExcel{})

	_, err := svc.BestProfession(context.Background(), augustPeriod)
	assert.ErrorIs(t, err, boom)
}

func TestBestClientsRanking(t *testing.T) {
	repo := &stubAnalytics{clients: []model.ClientTotal{
		{ID: 4, FullName: "Ash Kethcum", Paid: money("2020")},
		{ID: 2, FullName: "Mr Robot", Paid: money("442")},
		{ID: 1, FullName: "Harry Potter", Paid: money("442")},
		{ID: 3, FullName: "John Snow", Paid: money("200")},
	}}
	svc := newAdminService(repo, &stubExcel{})

	top, err := svc.BestClients(context.Background(), augustPeriod, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(4), top[0].ID)
	assert.Equal(t, int64(1), top[1].ID)

	top, err = svc.BestClients(context.Background(), augustPeriod, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 1, 2}, []int64{top[0].ID, top[1].ID, top[2].ID})
}

func TestBestClientsEmptyAndLimits(t *testing.T) {
	svc := newAdminService(&stubAnalytics{clients: []model.ClientTotal{}}, &stubExcel{})

	top, err := svc.BestClients(context.Background(), augustPeriod, 5)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)

	_, err = svc.BestClients(context.Background(), augustPeriod, maxBestClientsLimit+1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExportBestClients(t *testing.T) {
	repo := &stubAnalytics{clients: []model.ClientTotal{
		{ID: 1, FullName: "Harry Potter", Paid: money("442")},
	}}
	excel := &stubExcel{}
	svc := newAdminService(repo, excel)

	result, err := svc.ExportBestClients(context.Background(), augustPeriod, 2)
	require.NoError(t, err)
	assert.Equal(t, "best-clients-20200801-20200831.xlsx", result.FileName)
	assert.Equal(t, []byte("xlsx"), result.Content)
	assert.Len(t, excel.got.Clients, 1)
	assert.Equal(t, augustPeriod, excel.got.Period)
}
