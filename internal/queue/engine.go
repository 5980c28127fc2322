package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"clinic-queue-backend/internal/model"
	"clinic-queue-backend/internal/store"
)

// Actor is the request-scoped identity performing a coordination. Passed
// explicitly into every operation; the engine keeps no ambient user or
// tenant state.
type Actor struct {
	UserID    int64
	CompanyID int64
	Locale    string
}

// Result reports a completed coordination: the retired token, its
// replacement, and the log entry written for the pair.
type Result struct {
	OldToken *model.Token
	NewToken *model.Token
	Log      *model.CoordinationLog
}

// Engine orchestrates patient transfers between services and rooms. Every
// operation is a validate → act → log → retire pipeline executed in one
// storage transaction; a failed validation aborts before any mutation.
type Engine struct {
	store           store.Store
	cache           *cache.Cache
	log             zerolog.Logger
	servicesTTL     time.Duration
	defaultDuration float64
}

// NewEngine creates a coordination engine. The cache holds the per-patient
// available-services view; servicesTTL bounds its staleness between
// explicit invalidations.
func NewEngine(s store.Store, c *cache.Cache, log zerolog.Logger, servicesTTL time.Duration, defaultDuration float64) *Engine {
	if defaultDuration <= 0 {
		defaultDuration = DefaultAverageDuration
	}
	return &Engine{
		store:           s,
		cache:           c,
		log:             log.With().Str("component", "queue-engine").Logger(),
		servicesTTL:     servicesTTL,
		defaultDuration: defaultDuration,
	}
}

func (e *Engine) effectiveDuration(avg float64) float64 {
	if avg <= 0 {
		return e.defaultDuration
	}
	return avg
}

// CoordinateToService moves the patient's current waiting token to the
// least-loaded open room of the target service.
func (e *Engine) CoordinateToService(ctx context.Context, actor Actor, patientID, targetServiceID int64) (*Result, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, patientLookupError(err)
	}

	var result *Result
	err = e.store.Transaction(ctx, func(tx store.Store) error {
		current, err := tx.CurrentWaitingToken(ctx, patientID)
		if err != nil {
			return err
		}
		if current == nil {
			return noActiveWait()
		}

		target, err := tx.GetService(ctx, targetServiceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Service does not exist")
		}
		if err != nil {
			return err
		}

		if patient.Package != nil && !containsService(patient.Package.Services, target.ID) {
			return policyViolation("Service is not in the patient's package")
		}
		if containsService(patient.CompletedServices, target.ID) {
			return alreadyCompleted(target.Name)
		}
		if current.ServiceID == target.ID {
			return noOp("Already in this service")
		}

		room, err := FindLeastLoadedRoom(ctx, tx, target.ID)
		if err != nil {
			return err
		}
		if room == nil {
			return noRoomAvailable(target.Name)
		}

		reason := fmt.Sprintf("Coordinated from service %s to %s", current.Service.Name, target.Name)
		result, err = e.transfer(ctx, tx, actor, patient, current, target, room, model.CoordinationServiceChange, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.InvalidateServices(patientID)
	e.logTransfer(actor, result)
	return result, nil
}

// CoordinateToRoom moves the patient's current waiting token to another
// room serving the same service.
func (e *Engine) CoordinateToRoom(ctx context.Context, actor Actor, patientID, targetRoomID int64) (*Result, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, patientLookupError(err)
	}

	var result *Result
	err = e.store.Transaction(ctx, func(tx store.Store) error {
		current, err := tx.CurrentWaitingToken(ctx, patientID)
		if err != nil {
			return err
		}
		if current == nil {
			return noActiveWait()
		}

		room, err := tx.GetRoom(ctx, targetRoomID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Room does not exist")
		}
		if err != nil {
			return err
		}

		if room.State != model.RoomOpen {
			return roomUnavailable(room.Name)
		}
		if room.ServiceID != current.ServiceID {
			return policyViolation("Room does not serve the current service")
		}
		if room.ID == current.RoomID {
			return noOp("Selected room is the same as the current room")
		}

		reason := fmt.Sprintf("Room changed from %s to %s", current.Room.Name, room.Name)
		result, err = e.transfer(ctx, tx, actor, patient, current, &current.Service, room, model.CoordinationRoomChange, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.InvalidateServices(patientID)
	e.logTransfer(actor, result)
	return result, nil
}

// CoordinateServiceRoom places the patient into an explicitly chosen
// service/room pair. If a waiting token for that service already exists
// the move degrades to a room change for it; otherwise a fresh token is
// created with nothing to retire.
func (e *Engine) CoordinateServiceRoom(ctx context.Context, actor Actor, patientID, targetServiceID, targetRoomID int64) (*Result, error) {
	patient, err := e.store.GetPatient(ctx, patientID)
	if err != nil {
		return nil, patientLookupError(err)
	}

	var result *Result
	err = e.store.Transaction(ctx, func(tx store.Store) error {
		target, err := tx.GetService(ctx, targetServiceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Service does not exist")
		}
		if err != nil {
			return err
		}

		room, err := tx.GetRoom(ctx, targetRoomID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Room does not exist")
		}
		if err != nil {
			return err
		}

		if room.ServiceID != target.ID {
			return policyViolation("Room does not support this service")
		}
		if room.State != model.RoomOpen {
			return roomUnavailable(room.Name)
		}

		existing, err := tx.WaitingTokenForService(ctx, patientID, target.ID)
		if err != nil {
			return err
		}

		if existing != nil {
			if existing.RoomID == room.ID {
				return noOp("Selected room is the same as the current room")
			}
			reason := fmt.Sprintf("Room changed from %s to %s", existing.Room.Name, room.Name)
			result, err = e.transfer(ctx, tx, actor, patient, existing, target, room, model.CoordinationRoomChange, reason)
			return err
		}

		// Nothing to retire: issue a fresh token for the chosen pair.
		token := &model.Token{
			Code:      uuid.NewString(),
			PatientID: patient.ID,
			ServiceID: target.ID,
			RoomID:    room.ID,
			PackageID: patient.PackageID,
			Notes:     "Created via room selection",
		}
		if err := tx.CreateTokenAtBack(ctx, token); err != nil {
			return err
		}

		entry := &model.CoordinationLog{
			Code:          uuid.NewString(),
			Summary:       fmt.Sprintf("%s: %s", patient.Name, target.Name),
			PatientID:     patient.ID,
			UserID:        actor.UserID,
			Type:          model.CoordinationServiceChange,
			FromServiceID: target.ID,
			ToServiceID:   target.ID,
			ToRoomID:      room.ID,
			NewPosition:   token.Position,
			NewTokenID:    token.ID,
			NewTokenCode:  token.Code,
			Reason:        "Token created via room selection",
		}
		if err := tx.AppendLog(ctx, entry); err != nil {
			return err
		}

		result = &Result{NewToken: token, Log: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.InvalidateServices(patientID)
	e.logTransfer(actor, result)
	return result, nil
}

// transfer performs the shared act/log/retire tail of every coordination:
// replacement token at the back of the target room's line, one immutable
// log entry referencing both tokens, old token deleted. Runs inside the
// caller's transaction.
func (e *Engine) transfer(ctx context.Context, tx store.Store, actor Actor, patient *model.Patient, current *model.Token, target *model.Service, room *model.Room, kind model.CoordinationType, reason string) (*Result, error) {
	token := &model.Token{
		Code:          uuid.NewString(),
		PatientID:     patient.ID,
		ServiceID:     target.ID,
		RoomID:        room.ID,
		PriorityLevel: current.PriorityLevel,
		PriorityID:    current.PriorityID,
		Emergency:     current.Emergency,
		PackageID:     current.PackageID,
		Notes:         fmt.Sprintf("Coordinated from %s at %s", current.Service.Name, time.Now().Format("15:04")),
	}
	if err := tx.CreateTokenAtBack(ctx, token); err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("%s: %s → %s", patient.Name, current.Service.Name, target.Name)
	if kind == model.CoordinationRoomChange {
		summary = fmt.Sprintf("%s: %s → %s", patient.Name, current.Room.Name, room.Name)
	}

	oldTokenID := current.ID
	fromRoomID := current.RoomID
	entry := &model.CoordinationLog{
		Code:          uuid.NewString(),
		Summary:       summary,
		PatientID:     patient.ID,
		UserID:        actor.UserID,
		Type:          kind,
		FromServiceID: current.ServiceID,
		ToServiceID:   target.ID,
		FromRoomID:    &fromRoomID,
		ToRoomID:      room.ID,
		OldPosition:   current.Position,
		NewPosition:   token.Position,
		OldTokenID:    &oldTokenID,
		OldTokenCode:  current.Code,
		NewTokenID:    token.ID,
		NewTokenCode:  token.Code,
		PriorityLevel: token.PriorityLevel,
		Reason:        reason,
	}
	if err := tx.AppendLog(ctx, entry); err != nil {
		return nil, err
	}

	if err := tx.DeleteToken(ctx, current.ID); err != nil {
		return nil, err
	}

	return &Result{OldToken: current, NewToken: token, Log: entry}, nil
}

func (e *Engine) logTransfer(actor Actor, r *Result) {
	if r == nil {
		return
	}
	ev := e.log.Info().
		Int64("user_id", actor.UserID).
		Int64("patient_id", r.NewToken.PatientID).
		Str("type", string(r.Log.Type)).
		Int64("to_room_id", r.NewToken.RoomID).
		Int("new_position", r.NewToken.Position)
	if r.OldToken != nil {
		ev = ev.Int64("from_room_id", r.OldToken.RoomID)
	}
	ev.Msg("coordination completed")
}

func patientLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("Patient does not exist")
	}
	return err
}

func containsService(services []model.Service, id int64) bool {
	for _, svc := range services {
		if svc.ID == id {
			return true
		}
	}
	return false
}
