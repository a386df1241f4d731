package workorders

import (
	"fmt"
	"strconv"
	"time"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/models"
)

// PatchFromRecord translates one column-mapped import row into the explicit
// patch shape. The import pipeline has already renamed source-system columns
// to the canonical field names; anything outside the canonical set is
// rejected here rather than silently passed through.
func PatchFromRecord(rec map[string]string) (*models.WorkOrderPatch, error) {
	p := &models.WorkOrderPatch{}

	strField := func(dst **string, v string) error {
		val := v
		*dst = &val
		return nil
	}

	for field, value := range rec {
		var err error
		switch field {
		case "customerWoId":
			err = strField(&p.CustomerWoID, value)
		case "customerId":
			err = strField(&p.CustomerID, value)
		case "customerName":
			err = strField(&p.CustomerName, value)
		case "address":
			err = strField(&p.Address, value)
		case "city":
			err = strField(&p.City, value)
		case "state":
			err = strField(&p.State, value)
		case "zip":
			err = strField(&p.Zip, value)
		case "phone":
			err = strField(&p.Phone, value)
		case "email":
			err = strField(&p.Email, value)
		case "route":
			err = strField(&p.Route, value)
		case "zone":
			err = strField(&p.Zone, value)
		case "status":
			err = strField(&p.Status, value)
		case "serviceType":
			err = strField(&p.ServiceType, value)
		case "oldMeterId":
			err = strField(&p.OldMeterID, value)
		case "newMeterId":
			err = strField(&p.NewMeterID, value)
		case "oldReading":
			err = strField(&p.OldReading, value)
		case "newReading":
			err = strField(&p.NewReading, value)
		case "oldGps":
			err = strField(&p.OldGPS, value)
		case "newGps":
			err = strField(&p.NewGPS, value)
		case "oldMeterType":
			err = strField(&p.OldMeterType, value)
		case "newMeterType":
			err = strField(&p.NewMeterType, value)
		case "trouble":
			p.Trouble = models.SomeString(value)
		case "assignedGroupId":
			err = strField(&p.AssignedGroupID, value)
		case "assignedUserId":
			var id int
			if id, err = strconv.Atoi(value); err != nil {
				err = fmt.Errorf("assignedUserId %q is not numeric", value)
			} else {
				p.AssignedUserID = &id
			}
		case "scheduledAt":
			if value == "" {
				p.ScheduledAt = models.OptionalTime{Set: true}
			} else {
				var at time.Time
				if at, err = time.Parse(time.RFC3339, value); err != nil {
					err = fmt.Errorf("scheduledAt %q is not RFC 3339", value)
				} else {
					p.ScheduledAt = models.SomeTime(at)
				}
			}
		case "notes":
			err = strField(&p.Notes, value)
		case "signature":
			err = strField(&p.Signature, value)
		case "signatureName":
			err = strField(&p.SignatureName, value)
		default:
			return nil, fmt.Errorf("unknown field %q", field)
		}
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}
