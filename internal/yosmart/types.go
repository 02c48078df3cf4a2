package yosmart

import (
	"bytes"
	"encoding/json"
)

// tokenResponse models the OAuth2 token endpoint response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Response is the uplink envelope (BUDP) returned by every API method.
type Response struct {
	Code   string          `json:"code"`
	Time   int64           `json:"time"`
	MsgID  int64           `json:"msgid"`
	Method string          `json:"method"`
	Desc   string          `json:"desc"`
	Data   json.RawMessage `json:"data"`
}

// StateData is the common shape of a device-state query's data payload.
type StateData struct {
	Online   bool         `json:"online"`
	State    StatePayload `json:"state"`
	ReportAt string       `json:"reportAt"`
}

// StatePayload holds the state sub-object of a device-state response. Some
// device types report a bare string here instead of an object, so it carries
// a custom decoder.
type StatePayload struct {
	Label       string
	Temperature *float64
	Humidity    *float64
	Battery     *int
	Mode        string
	Alarm       AlarmValue
}

// UnmarshalJSON accepts either a bare state label or a full state object.
// The temperature may arrive under "temperature" or the shorthand "temp".
func (p *StatePayload) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &p.Label)
	}

	var aux struct {
		State       string     `json:"state"`
		Temperature *float64   `json:"temperature"`
		Temp        *float64   `json:"temp"`
		Humidity    *float64   `json:"humidity"`
		Battery     *int       `json:"battery"`
		Mode        string     `json:"mode"`
		Alarm       AlarmValue `json:"alarm"`
	}
	if err := json.Unmarshal(trimmed, &aux); err != nil {
		return err
	}

	p.Label = aux.State
	p.Temperature = aux.Temperature
	if p.Temperature == nil {
		p.Temperature = aux.Temp
	}
	p.Humidity = aux.Humidity
	p.Battery = aux.Battery
	p.Mode = aux.Mode
	p.Alarm = aux.Alarm
	return nil
}

// AlarmValue is the vendor's alarm field, which may be a plain boolean or an
// object of named boolean flags plus a non-boolean "code". The raw value is
// kept as-is and interpreted by Triggered.
type AlarmValue struct {
	raw json.RawMessage
}

func (a *AlarmValue) UnmarshalJSON(b []byte) error {
	a.raw = append(a.raw[:0], b...)
	return nil
}

func (a AlarmValue) MarshalJSON() ([]byte, error) {
	if len(a.raw) == 0 {
		return []byte("null"), nil
	}
	return a.raw, nil
}

// Triggered reports whether the alarm value means an active alarm.
func (a AlarmValue) Triggered() bool {
	return alarmTriggered(a.raw)
}

// alarmTriggered normalizes the heterogeneous alarm field. True iff the value
// is literally true, or is an object with at least one flag other than "code"
// literally true. Stray scalars coerce by truthiness; everything else is false.
func alarmTriggered(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}

	var b bool
	if err := json.Unmarshal(trimmed, &b); err == nil {
		return b
	}

	if trimmed[0] == '{' {
		var flags map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &flags); err != nil {
			return false
		}
		for key, val := range flags {
			if key == "code" {
				continue
			}
			if bytes.Equal(bytes.TrimSpace(val), []byte("true")) {
				return true
			}
		}
		return false
	}

	var n float64
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n != 0
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s != ""
	}
	return false
}
