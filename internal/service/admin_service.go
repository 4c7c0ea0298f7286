package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nurpe/freelance-market/internal/config"
	"github.com/nurpe/freelance-market/internal/model"
)

const maxBestClientsLimit = 100

type analyticsReader interface {
	ProfessionTotals(ctx context.Context, from, to time.Time) ([]model.ProfessionTotal, error)
	ClientTotals(ctx context.Context, from, to time.Time) ([]model.ClientTotal, error)
}

type ExcelGenerator interface {
	Generate(report model.ClientsReport) ([]byte, error)
}

type AdminService struct {
	repo         analyticsReader
	excel        ExcelGenerator
	defaultLimit int
}

func NewAdminService(repo analyticsReader, excel ExcelGenerator, cfg *config.Config) *AdminService {
	return &AdminService{
		repo:         repo,
		excel:        excel,
		defaultLimit: cfg.Admin.BestClientsLimit,
	}
}

// BestProfession returns the contractor profession that earned the most in the period.
// Equal totals resolve to the lexicographically smallest profession.
func (s *AdminService) BestProfession(ctx context.Context, period model.Period) (*model.ProfessionTotal, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}

	totals, err := s.repo.ProfessionTotals(ctx, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return nil, fmt.Errorf("%w: no paid jobs in period", ErrNotFound)
	}

	best := totals[0]
	for _, candidate := range totals[1:] {
		switch cmp := candidate.Total.Cmp(best.Total); {
		case cmp > 0:
			best = candidate
		case cmp == 0 && candidate.Profession < best.Profession:
			best = candidate
		}
	}
	return &best, nil
}

// BestClients returns up to limit clients ordered by paid total descending, then id ascending.
// A non-positive limit falls back to the configured default.
func (s *AdminService) BestClients(ctx context.Context, period model.Period, limit int) ([]model.ClientTotal, error) {
	if err := validatePeriod(period); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxBestClientsLimit {
		return nil, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidInput, maxBestClientsLimit)
	}

	totals, err := s.repo.ClientTotals(ctx, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	return rankClients(totals, limit), nil
}

func (s *AdminService) ExportBestClients(ctx context.Context, period model.Period, limit int) (*FileResult, error) {
	clients, err := s.BestClients(ctx, period, limit)
	if err != nil {
		return nil, err
	}

	report := model.ClientsReport{Period: period, Clients: clients}
	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: buildFileName(report),
		Content:  content,
	}, nil
}

func rankClients(totals []model.ClientTotal, limit int) []model.ClientTotal {
	ranked := make([]model.ClientTotal, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		if cmp := ranked[i].Paid.Cmp(ranked[j].Paid); cmp != 0 {
			return cmp > 0
		}
		return ranked[i].ID < ranked[j].ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func validatePeriod(period model.Period) error {
	if period.Start.IsZero() || period.End.IsZero() {
		return fmt.Errorf("%w: startDate and endDate are required", ErrInvalidInput)
	}
	if period.Start.After(period.End) {
		return fmt.Errorf("%w: startDate must be before or equal to endDate", ErrInvalidInput)
	}
	return nil
}

func buildFileName(report model.ClientsReport) string {
	period := fmt.Sprintf("%s-%s", report.Period.Start.Format("20060102"), report.Period.End.Format("20060102"))
	return fmt.Sprintf("best-clients-%s.xlsx", period)
}
