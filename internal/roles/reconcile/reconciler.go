package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/domain"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/service"
)

// Reconciler repairs profile-mirror rows whose role drifted from the
// authoritative claim. Role assignments update both synchronously, but a
// crash between the two writes leaves the mirror stale until this runs.
type Reconciler struct {
	claims   service.ClaimsStore
	profiles service.ProfileStore
	log      zerolog.Logger
}

func New(claims service.ClaimsStore, profiles service.ProfileStore, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		claims:   claims,
		profiles: profiles,
		log:      log.With().Str("component", "role-reconcile").Logger(),
	}
}

// Run walks the identity listing once and upserts mirror rows that are
// missing or carry a different role. Returns the number of repaired rows.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	identities, err := r.claims.List(ctx, domain.MaxListIdentities)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, ident := range identities {
		profile, err := r.profiles.Get(ctx, ident.UID)
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			// Missing row: the first-seen hook never completed.
		case err != nil:
			r.log.Warn().Err(err).Str("uid", ident.UID).Msg("skipping profile read failure")
			continue
		case profile.Role == ident.Role:
			continue
		}

		if err := r.profiles.UpsertRole(ctx, ident.UID, auth.Role(ident.Role)); err != nil {
			r.log.Warn().Err(err).Str("uid", ident.UID).Msg("failed to repair mirrored role")
			continue
		}
		repaired++
	}

	if repaired > 0 {
		r.log.Info().Int("repaired", repaired).Msg("profile mirror reconciled")
	}
	return repaired, nil
}

// Scheduler runs the reconciler on a cron spec.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// StartScheduler registers the reconcile job and starts the cron loop.
// The spec uses six fields (with seconds), e.g. "0 0 */6 * * *".
func StartScheduler(rec *Reconciler, spec string, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if _, err := rec.Run(ctx); err != nil {
			rec.log.Error().Err(err).Msg("reconcile run failed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Info().Str("spec", spec).Msg("role reconcile scheduler started")

	return &Scheduler{cron: c, log: log}, nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
