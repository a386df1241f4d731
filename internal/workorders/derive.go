package workorders

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/lookups"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/timeutil"
)

// ErrScheduledWithoutTime rejects a write that would leave a work order in
// status Scheduled with no scheduled time on record.
var ErrScheduledWithoutTime = errors.New("status Scheduled requires a scheduled time")

// changeSet collects the column assignments and generated audit lines one
// write produces. Columns are ordered so the generated SQL is stable; a
// later set of the same column replaces the earlier value.
type changeSet struct {
	cols      []string
	vals      []any
	noteLines []string
}

func (c *changeSet) set(col string, v any) {
	for i, name := range c.cols {
		if name == col {
			c.vals[i] = v
			return
		}
	}
	c.cols = append(c.cols, col)
	c.vals = append(c.vals, v)
}

func (c *changeSet) get(col string) (any, bool) {
	for i, name := range c.cols {
		if name == col {
			return c.vals[i], true
		}
	}
	return nil, false
}

func (c *changeSet) note(line string) {
	c.noteLines = append(c.noteLines, line)
}

// noteText joins the caller's note text with the generated audit lines.
// The result is appended to the stored notes, never replacing history.
func (c *changeSet) noteText(userNotes *string) string {
	var parts []string
	if userNotes != nil && *userNotes != "" {
		parts = append(parts, *userNotes)
	}
	parts = append(parts, c.noteLines...)
	return strings.Join(parts, "\n")
}

// actorIdentity resolves the acting identity once per write. A missing
// identity is valid and simply omits actor attribution; an identity that
// does not resolve to a user still appears in note text as raw.
type actorIdentity struct {
	id   *int
	name string
}

func resolveActor(ctx context.Context, lk Lookups, actor string) (actorIdentity, error) {
	if actor == "" {
		return actorIdentity{}, nil
	}
	id, ok, err := lk.UserID(ctx, actor)
	if err != nil {
		return actorIdentity{}, err
	}
	if !ok {
		return actorIdentity{name: actor}, nil
	}
	return actorIdentity{id: &id, name: actor}, nil
}

// derive applies the field-interaction state machine to one write. prev is
// nil for a create. The rule precedence is load-bearing: a fresh scheduledAt
// wins over everything, a changed trouble code wins over an explicit status,
// and an explicit status applies only when neither of those fired.
func derive(ctx context.Context, lk Lookups, prev *models.WorkOrder, p *models.WorkOrderPatch, actor string, now time.Time) (*changeSet, error) {
	cs := &changeSet{}

	setDescriptiveFields(cs, p)

	if err := setResolvedFields(ctx, lk, cs, p); err != nil {
		return nil, err
	}

	who, err := resolveActor(ctx, lk, actor)
	if err != nil {
		return nil, err
	}

	switch {
	case p.ScheduledAt.Set && p.ScheduledAt.Value != nil:
		// Scheduling owns status, even over a trouble code in the same
		// write: scheduling a trouble work order re-opens its calendar slot.
		at := *p.ScheduledAt.Value
		cs.set("scheduled_at", at)
		cs.set("scheduled_by", intOrNil(who.id))
		code, err := statusCodeByLabel(ctx, lk, lookups.LabelScheduled)
		if err != nil {
			return nil, err
		}
		cs.set("status", code)
		cs.note(withActor("Scheduled at "+timeutil.Stamp(at), who))

	case p.ScheduledAt.Set:
		// Clearing the schedule reverts status away from Scheduled unless
		// the same write supplies an explicit alternative.
		cs.set("scheduled_at", nil)
		cs.set("scheduled_by", nil)
		if p.Status != nil {
			if err := applyExplicitStatus(ctx, lk, cs, *p.Status, who, false, now); err != nil {
				return nil, err
			}
		} else if wasScheduled, err := statusHasLabel(ctx, lk, prev, lookups.LabelScheduled); err != nil {
			return nil, err
		} else if wasScheduled {
			code, err := statusCodeByLabel(ctx, lk, lookups.LabelOpen)
			if err != nil {
				return nil, err
			}
			cs.set("status", code)
		}

	case troubleChanged(prev, p):
		code, err := statusCodeByLabel(ctx, lk, lookups.LabelTrouble)
		if err != nil {
			return nil, err
		}
		cs.set("status", code)
		line, err := troubleNote(ctx, lk, *p.Trouble.Value, now)
		if err != nil {
			return nil, err
		}
		cs.note(line)

	case p.Status != nil:
		hasSchedule := prev != nil && prev.ScheduledAt != nil
		if err := applyExplicitStatus(ctx, lk, cs, *p.Status, who, hasSchedule, now); err != nil {
			return nil, err
		}
	}

	return cs, nil
}

// setDescriptiveFields copies the plain passthrough fields present in the
// patch. These carry no derivation side effects.
func setDescriptiveFields(cs *changeSet, p *models.WorkOrderPatch) {
	strCols := []struct {
		col string
		val *string
	}{
		{"customer_wo_id", p.CustomerWoID},
		{"customer_id", p.CustomerID},
		{"customer_name", p.CustomerName},
		{"address", p.Address},
		{"city", p.City},
		{"state", p.State},
		{"zip", p.Zip},
		{"phone", p.Phone},
		{"email", p.Email},
		{"route", p.Route},
		{"zone", p.Zone},
		{"old_meter_id", p.OldMeterID},
		{"new_meter_id", p.NewMeterID},
		{"old_reading", p.OldReading},
		{"new_reading", p.NewReading},
		{"old_gps", p.OldGPS},
		{"new_gps", p.NewGPS},
		{"signature", p.Signature},
		{"signature_name", p.SignatureName},
	}
	for _, f := range strCols {
		if f.val != nil {
			cs.set(f.col, *f.val)
		}
	}
	if p.AssignedUserID != nil {
		cs.set("assigned_user_id", *p.AssignedUserID)
	}
	if p.Attachments != nil {
		cs.set("attachments", *p.Attachments)
	}
	if p.Trouble.Set {
		if p.Trouble.Value == nil || *p.Trouble.Value == "" {
			cs.set("trouble", nil)
		} else {
			cs.set("trouble", *p.Trouble.Value)
		}
	}
}

// setResolvedFields translates the fields that must be stored in canonical
// key form: service type and meter types by lookup code, the group
// assignment by group name. A meter type or service type that misses the
// lookup passes through raw and the foreign key is the authoritative
// failure. An unresolved group leaves the assignment untouched.
func setResolvedFields(ctx context.Context, lk Lookups, cs *changeSet, p *models.WorkOrderPatch) error {
	if p.ServiceType != nil {
		val := *p.ServiceType
		if rec, err := lk.ServiceType(ctx, val); err != nil {
			return err
		} else if rec != nil {
			val = rec.Code
		}
		cs.set("service_type", val)
	}
	for _, f := range []struct {
		col string
		val *string
	}{
		{"old_meter_type", p.OldMeterType},
		{"new_meter_type", p.NewMeterType},
	} {
		if f.val == nil {
			continue
		}
		val := *f.val
		if rec, err := lk.MeterType(ctx, val); err != nil {
			return err
		} else if rec != nil {
			val = rec.Code
		}
		cs.set(f.col, val)
	}
	if p.AssignedGroupID != nil {
		name, ok, err := lk.GroupName(ctx, *p.AssignedGroupID)
		if err != nil {
			return err
		}
		if ok {
			cs.set("assigned_group_id", name)
		} else {
			log.Printf("[WorkOrders] unresolved group %q, leaving assignment unset", *p.AssignedGroupID)
		}
	}
	return nil
}

// applyExplicitStatus handles a caller-supplied status once the scheduling
// and trouble rules have passed on the write. hasSchedule tells it whether a
// scheduled time survives this write; a Scheduled status without one is
// rejected outright.
func applyExplicitStatus(ctx context.Context, lk Lookups, cs *changeSet, value string, who actorIdentity, hasSchedule bool, now time.Time) error {
	code, label := value, value
	rec, err := lk.Status(ctx, value)
	if err != nil {
		return err
	}
	if rec != nil {
		code, label = rec.Code, rec.Label
	}

	if label == lookups.LabelScheduled && !hasSchedule {
		return ErrScheduledWithoutTime
	}
	cs.set("status", code)

	if label == lookups.LabelCompleted {
		cs.set("completed_at", now)
		cs.set("completed_by", intOrNil(who.id))
		cs.note(withActor("Completed at "+timeutil.Stamp(now), who))
	}
	if label != lookups.LabelScheduled {
		// Only a Scheduled status may coexist with a scheduled time.
		cs.set("scheduled_at", nil)
		cs.set("scheduled_by", nil)
	}
	return nil
}

// troubleChanged reports whether this write sets a non-empty trouble code
// differing from the stored one. Re-writing the same code is a no-op so the
// audit log gains no duplicate lines.
func troubleChanged(prev *models.WorkOrder, p *models.WorkOrderPatch) bool {
	if !p.Trouble.Set || p.Trouble.Value == nil || *p.Trouble.Value == "" {
		return false
	}
	if prev == nil || prev.Trouble == nil {
		return true
	}
	return *prev.Trouble != *p.Trouble.Value
}

// troubleNote renders the trouble audit line, falling back to the raw code
// text when the label lookup misses.
func troubleNote(ctx context.Context, lk Lookups, code string, now time.Time) (string, error) {
	text := code
	rec, err := lk.TroubleCode(ctx, code)
	if err != nil {
		return "", err
	}
	if rec != nil {
		text = rec.Code + " - " + rec.Label
	}
	return "Trouble Code: " + text + " - " + timeutil.Stamp(now), nil
}

// statusHasLabel reports whether the stored status of prev resolves to the
// given canonical label.
func statusHasLabel(ctx context.Context, lk Lookups, prev *models.WorkOrder, label string) (bool, error) {
	if prev == nil || prev.Status == nil {
		return false, nil
	}
	rec, err := lk.Status(ctx, *prev.Status)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return *prev.Status == label, nil
	}
	return rec.Label == label, nil
}

func statusCodeByLabel(ctx context.Context, lk Lookups, label string) (string, error) {
	rec, err := lk.StatusByLabel(ctx, label)
	if err != nil {
		return "", err
	}
	if rec == nil {
		// Seeded labels can be renamed by an administrator; the raw label
		// then surfaces a constraint violation rather than silent data.
		return label, nil
	}
	return rec.Code, nil
}

func withActor(line string, who actorIdentity) string {
	if who.name == "" {
		return line
	}
	return line + " by " + who.name
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
