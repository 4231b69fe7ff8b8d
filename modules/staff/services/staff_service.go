package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mazmed/portal/modules/staff/domain/staff"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/eventbus"
	"github.com/mazmed/portal/pkg/metrics"
)

// Dashboard is everything the staff view needs from one load.
type Dashboard struct {
	Tenant tenant.Tenant
	Staff  []staff.Staff
}

type StaffService struct {
	repo      staff.Repository
	publisher eventbus.EventBus
}

func NewStaffService(repo staff.Repository, publisher eventbus.EventBus) *StaffService {
	return &StaffService{repo: repo, publisher: publisher}
}

// Dashboard reads the tenant and its staff concurrently. Both reads run to
// completion; either failure fails the whole load.
func (s *StaffService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	var g errgroup.Group
	g.Go(func() error {
		t, err := s.repo.CurrentTenant(ctx)
		if err != nil {
			return err
		}
		d.Tenant = t
		return nil
	})
	g.Go(func() error {
		list, err := s.repo.List(ctx)
		if err != nil {
			return err
		}
		d.Staff = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *StaffService) Create(ctx context.Context, params staff.CreateParams) error {
	if err := s.repo.Create(ctx, params); err != nil {
		return err
	}
	if s.publisher != nil {
		actor := ""
		if ident, err := composables.UseIdentity(ctx); err == nil {
			actor = ident.Username()
		}
		s.publisher.Publish(ctx, &staff.CreatedEvent{Actor: actor, Params: params})
	}
	return nil
}

// RecordCreated counts and logs staff creations.
func RecordCreated(ctx context.Context, e *staff.CreatedEvent) {
	metrics.TenantMutations.WithLabelValues("staff.created").Inc()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"actor": e.Actor,
		"email": e.Params.Email,
		"role":  e.Params.Role,
	}).Info("staff member created")
}
