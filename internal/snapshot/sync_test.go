package snapshot

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"store-monitor-backend/internal/yosmart"
)

func TestCapturer_SyncDevices(t *testing.T) {
	// Home.getDeviceList carries no targetDevice, so the mock keys it by "".
	gw := &mockGateway{
		responses: map[string]*yosmart.Response{
			"": okResponse(t, `{"devices":[
				{"deviceId":"d1","token":"t1","name":"Back room TH","type":"THSensor","modelName":"YS8003-UC"},
				{"deviceId":"d2","token":"t2","name":"Front door","type":"DoorSensor","modelName":"YS7707-UC"},
				{"deviceId":"d3","token":"t3","name":"Gateway","type":"Hub","modelName":"YS1603-UC"},
				{"deviceId":"","token":"","name":"ghost","type":"THSensor","modelName":""}
			]}`),
		},
	}
	ms := &mockStore{}
	capturer := NewCapturer(gw, ms, nil)

	count, err := capturer.SyncDevices(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "entries without a device id are skipped")
	assert.EqualValues(t, 7, ms.upsertedStoreID)
	require.Len(t, ms.upserted, 3)

	assert.Equal(t, "d1", ms.upserted[0].DeviceID)
	assert.Equal(t, "THSensor", ms.upserted[0].Type)
	assert.False(t, ms.upserted[0].IsHub)
	assert.True(t, ms.upserted[2].IsHub)
	assert.Equal(t, []string{"Home.getDeviceList"}, gw.methods)
}

func TestCapturer_SyncDevicesVendorError(t *testing.T) {
	gw := &mockGateway{
		responses: map[string]*yosmart.Response{
			"": {Code: "010301", Desc: "access denied"},
		},
	}
	capturer := NewCapturer(gw, &mockStore{}, nil)

	_, err := capturer.SyncDevices(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestCapturer_SyncDevicesTransportError(t *testing.T) {
	gw := &mockGateway{
		errors: map[string]error{
			"": fmt.Errorf("connection reset"),
		},
	}
	capturer := NewCapturer(gw, &mockStore{}, nil)

	_, err := capturer.SyncDevices(context.Background(), 1)
	require.Error(t, err)
}
