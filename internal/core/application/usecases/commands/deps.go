package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/core/ports"

	"github.com/rs/zerolog"
)

// Deps bundles the collaborators every lifecycle handler needs.
type Deps struct {
	UoWFactory OrderUoWFactory
	Locker     ports.Locker
	Authorizer ports.Authorizer
	Clock      kernel.Clock
	Logger     zerolog.Logger
	Metrics    Recorder
}

func (d Deps) withDefaults(component string) (Deps, error) {
	if d.UoWFactory == nil {
		return Deps{}, errors.New("commands: unit of work factory is required")
	}
	if d.Locker == nil {
		return Deps{}, errors.New("commands: locker is required")
	}
	if d.Authorizer == nil {
		return Deps{}, errors.New("commands: authorizer is required")
	}
	if d.Clock == nil {
		d.Clock = kernel.SystemClock
	}
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	d.Logger = d.Logger.With().Str("component", component).Logger()
	return d, nil
}

func (d Deps) now() time.Time {
	return kernel.Instant(d.Clock())
}

// PatientLockKey is the Locker key that serializes lifecycle changes of one patient.
func PatientLockKey(patient kernel.UUID) string {
	return "orders:patient:" + patient.String()
}

func (d Deps) lockPatient(ctx context.Context, patient kernel.UUID) (func(), error) {
	unlock, err := d.Locker.Lock(ctx, PatientLockKey(patient))
	if err != nil {
		return nil, fmt.Errorf("lock patient %s: %w", patient, err)
	}
	return func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			d.Logger.Warn().Err(unlockErr).Str("patient", patient.String()).Msg("failed to release patient lock")
		}
	}, nil
}

// patientOf reads the patient of a persisted order outside any transaction so the
// patient lock can be taken before the unit of work begins.
func (d Deps) patientOf(ctx context.Context, orderUUID kernel.UUID) (kernel.UUID, error) {
	o, err := d.UoWFactory.Create().OrderRepository().GetByUUID(ctx, orderUUID)
	if err != nil {
		return kernel.UUID{}, err
	}
	return o.Patient(), nil
}

// inPatientTx runs fn inside a unit of work while holding the patient lock. The unit
// of work is committed only if fn succeeds.
func (d Deps) inPatientTx(ctx context.Context, patient kernel.UUID, fn func(uow OrderUoW) error) error {
	release, err := d.lockPatient(ctx, patient)
	if err != nil {
		return err
	}
	defer release()

	uow := d.UoWFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = fn(uow); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
