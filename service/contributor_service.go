package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"mesocratic/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var identityFolder = cases.Fold()

// NormalizeIdentity builds the matching key for a donor: last name, first
// name and ZIP, each case-folded, trimmed and with internal whitespace
// collapsed. Compatibility forms are unified first, so "Ｓmith" matches "smith".
func NormalizeIdentity(lastName, firstName, zip string) string {
	parts := []string{lastName, firstName, zip}
	for i, p := range parts {
		p = norm.NFKC.String(p)
		p = identityFolder.String(p)
		parts[i] = strings.Join(strings.Fields(p), " ")
	}
	return strings.Join(parts, "|")
}

func identityOf(d *models.Donor) string {
	return NormalizeIdentity(d.LastName, d.FirstName, d.Zip)
}

// contributorService implements the ContributorService interface
type contributorService struct {
	donorRepo    DonorRepository
	donationRepo DonationRepository
}

// NewContributorService creates a new contributor service
func NewContributorService(donorRepo DonorRepository, donationRepo DonationRepository) ContributorService {
	return &contributorService{
		donorRepo:    donorRepo,
		donationRepo: donationRepo,
	}
}

// FindDuplicateGroups returns donors grouped by normalized identity. Keys are
// recomputed from current donor fields rather than trusting stored ones.
// Matching is advisory; no donor is ever merged.
func (s *contributorService) FindDuplicateGroups(ctx context.Context) ([]*models.DuplicateGroup, error) {
	donors, err := s.donorRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list donors: %w", err)
	}

	byKey := make(map[string]*models.DuplicateGroup)
	var order []string
	for _, d := range donors {
		key := identityOf(d)
		group, ok := byKey[key]
		if !ok {
			group = &models.DuplicateGroup{NormalizedKey: key}
			byKey[key] = group
			order = append(order, key)
		}
		group.Donors = append(group.Donors, d)
	}

	var groups []*models.DuplicateGroup
	for _, key := range order {
		group := byKey[key]
		if len(group.Donors) < 2 {
			continue
		}
		sort.SliceStable(group.Donors, func(i, j int) bool {
			return group.Donors[i].CreatedAt.Before(group.Donors[j].CreatedAt)
		})
		group.Canonical = group.Donors[0]
		groups = append(groups, group)
	}

	log.WithFields(log.Fields{
		"donors": len(donors),
		"groups": len(groups),
	}).Info("Completed duplicate donor sweep")

	return groups, nil
}

// CombinedAggregate sums the year's succeeded donations across every donor
// sharing the given donor's identity. It is reporting context only and
// never changes which donor a donation is attributed to.
func (s *contributorService) CombinedAggregate(ctx context.Context, donorID uuid.UUID, year int) (int64, error) {
	donor, err := s.donorRepo.GetByID(ctx, donorID)
	if err != nil {
		return 0, fmt.Errorf("failed to get donor %s: %w", donorID, err)
	}
	if donor == nil {
		return 0, fmt.Errorf("donor %s: %w", donorID, models.ErrNotFound)
	}

	donors, err := s.donorRepo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list donors: %w", err)
	}

	// Keys are recomputed on both sides so this agrees with FindDuplicateGroups
	key := identityOf(donor)
	ids := map[uuid.UUID]bool{donor.ID: true}
	for _, d := range donors {
		if identityOf(d) == key {
			ids[d.ID] = true
		}
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var total int64
	for id := range ids {
		sum, err := s.donationRepo.SumSucceededForDonor(ctx, id, from, to)
		if err != nil {
			return 0, fmt.Errorf("failed to sum donations for donor %s: %w", id, err)
		}
		total += sum
	}
	return total, nil
}
