package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"store-monitor-backend/internal/model"
	"store-monitor-backend/internal/yosmart"
)

// deviceListData mirrors the Home.getDeviceList payload.
type deviceListData struct {
	Devices []struct {
		DeviceID  string `json:"deviceId"`
		Token     string `json:"token"`
		Name      string `json:"name"`
		Type      string `json:"type"`
		ModelName string `json:"modelName"`
	} `json:"devices"`
}

// SyncDevices fetches the account's device list from the vendor and upserts
// the descriptors under the given store. Returns the number of devices seen.
func (c *Capturer) SyncDevices(ctx context.Context, storeID int64) (int, error) {
	resp, err := c.api.Call(ctx, "Home.getDeviceList", nil)
	if err != nil {
		return 0, fmt.Errorf("device list call failed: %w", err)
	}
	if resp.Code != yosmart.CodeSuccess {
		return 0, fmt.Errorf("device list rejected: %s (code %s)", resp.Desc, resp.Code)
	}

	var data deviceListData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("decode device list: %w", err)
	}

	devices := make([]model.Device, 0, len(data.Devices))
	for _, d := range data.Devices {
		if d.DeviceID == "" {
			log.Printf("Warning: skipping device list entry with empty id (name %q)", d.Name)
			continue
		}
		devices = append(devices, model.Device{
			DeviceID:  d.DeviceID,
			Token:     d.Token,
			Name:      d.Name,
			Type:      d.Type,
			ModelName: d.ModelName,
			IsHub:     strings.Contains(d.Type, "Hub"),
		})
	}

	if err := c.store.UpsertDevices(ctx, storeID, devices); err != nil {
		return 0, err
	}
	log.Printf("synced %d devices into store %d", len(devices), storeID)
	return len(devices), nil
}
