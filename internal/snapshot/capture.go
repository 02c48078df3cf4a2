package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"store-monitor-backend/internal/metrics"
	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/store"
	"store-monitor-backend/internal/yosmart"
)

// Gateway is the slice of the YoSmart client the capturer needs.
type Gateway interface {
	Call(ctx context.Context, method string, params map[string]any) (*yosmart.Response, error)
}

// AlarmNotifier receives device IDs whose latest reading has an active alarm.
type AlarmNotifier interface {
	Dispatch(deviceID int64)
}

// Capturer performs snapshot captures: one vendor state query per device,
// normalized into a Reading row. It never decides whether to run; the
// schedule controller and the manual run-now path both call it directly so
// the two behave identically.
type Capturer struct {
	api      Gateway
	store    store.Store
	notifier AlarmNotifier
	now      func() time.Time
}

// NewCapturer creates a capturer. notifier may be nil.
func NewCapturer(api Gateway, st store.Store, notifier AlarmNotifier) *Capturer {
	return &Capturer{
		api:      api,
		store:    st,
		notifier: notifier,
		now:      time.Now,
	}
}

// CaptureStore fetches state for every device of the store, in listed order,
// and persists one reading per device whether or not its call succeeded. It
// returns the number of devices attempted. Only a persistence failure aborts
// the remaining devices of this store.
func (c *Capturer) CaptureStore(ctx context.Context, st model.Store, runID string) (int, error) {
	attempted := 0
	for _, dev := range st.Devices {
		attempted++

		// The clock is read per device so capture timestamps reflect actual
		// call time.
		capturedAt := c.now().UTC()
		method := yosmart.StateMethod(dev.Type)
		resp, err := c.api.Call(ctx, method, map[string]any{
			"targetDevice": dev.DeviceID,
			"token":        dev.Token,
		})

		reading := c.normalize(st.ID, dev, resp, err, runID, capturedAt)
		if perr := c.store.CreateReading(ctx, reading); perr != nil {
			return attempted, fmt.Errorf("persist reading for device %s: %w", dev.DeviceID, perr)
		}
		metrics.ReadingsCaptured.Inc()

		if reading.Alarm && c.notifier != nil {
			c.notifier.Dispatch(dev.ID)
		}
	}
	log.Printf("captured %d devices for store %q (run %s)", attempted, st.Name, runID)
	return attempted, nil
}

// normalize folds a vendor response, or a call failure, into a Reading. A
// failed call yields an offline reading whose raw state holds the error
// descriptor instead of device data.
func (c *Capturer) normalize(storeID int64, dev model.Device, resp *yosmart.Response, callErr error, runID string, capturedAt time.Time) *model.Reading {
	reading := &model.Reading{
		StoreID:         storeID,
		DeviceID:        dev.ID,
		RunID:           runID,
		CapturedAt:      capturedAt,
		TemperatureUnit: "C",
	}

	if callErr != nil {
		reading.RawState = errorRawState(callErr.Error())
		return reading
	}
	if resp.Code != yosmart.CodeSuccess {
		desc := resp.Desc
		if desc == "" {
			desc = "vendor error " + resp.Code
		}
		reading.RawState = errorRawState(desc)
		return reading
	}

	reading.RawState = string(resp.Data)

	var data yosmart.StateData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		log.Printf("Warning: could not decode state payload for device %s: %v", dev.DeviceID, err)
		return reading
	}

	reading.Online = data.Online
	reading.State = data.State.Label
	reading.Temperature = data.State.Temperature
	reading.Humidity = data.State.Humidity
	reading.Battery = data.State.Battery
	reading.Alarm = data.State.Alarm.Triggered()
	if data.State.Mode == "f" || data.State.Mode == "F" {
		reading.TemperatureUnit = "F"
	}
	if data.ReportAt != "" {
		if reportedAt, err := time.Parse(time.RFC3339, data.ReportAt); err == nil {
			reading.ReportedAt = &reportedAt
		} else {
			log.Printf("Warning: could not parse reportAt %q for device %s: %v", data.ReportAt, dev.DeviceID, err)
		}
	}
	return reading
}

func errorRawState(desc string) string {
	raw, err := json.Marshal(map[string]string{"error": desc})
	if err != nil {
		return `{"error":"unknown"}`
	}
	return string(raw)
}
