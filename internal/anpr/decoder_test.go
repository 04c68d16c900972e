package anpr

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "plategate/pkg/errors"
	"plategate/pkg/models"
)

func TestDecode_CameraFixture(t *testing.T) {
	raw, err := os.ReadFile("testdata/event.xml")
	require.NoError(t, err)

	event, err := Decode(string(raw))
	require.NoError(t, err)

	assert.Equal(t, models.StructuredEvent{
		IPAddress:    "192.168.1.64",
		DateTime:     "2024-03-18T09:41:07+08:00",
		EventType:    "ANPR",
		LicensePlate: "AB1234C",
		VehicleType:  "car",
		VehicleColor: "blue",
		VehicleSpeed: "42",
	}, event)
}

func TestDecode_TrailingMultipartCRLF(t *testing.T) {
	raw, err := os.ReadFile("testdata/event.xml")
	require.NoError(t, err)

	_, err = Decode(string(raw) + "\r\n")
	assert.NoError(t, err)
}

func TestDecode_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		element string
	}{
		{
			name:    "missing license plate",
			xml:     `<EventNotificationAlert><ipAddress>1</ipAddress><dateTime>t</dateTime><eventType>ANPR</eventType><ANPR><vehicleInfo><vehicleType>car</vehicleType><color>red</color><speed>1</speed></vehicleInfo></ANPR></EventNotificationAlert>`,
			element: "ANPR/licensePlate",
		},
		{
			name:    "missing ANPR node",
			xml:     `<EventNotificationAlert><ipAddress>1</ipAddress><dateTime>t</dateTime><eventType>videoloss</eventType></EventNotificationAlert>`,
			element: "EventNotificationAlert/ANPR",
		},
		{
			name:    "missing vehicle info",
			xml:     `<EventNotificationAlert><ipAddress>1</ipAddress><dateTime>t</dateTime><eventType>ANPR</eventType><ANPR><licensePlate>X</licensePlate></ANPR></EventNotificationAlert>`,
			element: "ANPR/vehicleInfo",
		},
		{
			name:    "missing speed",
			xml:     `<EventNotificationAlert><ipAddress>1</ipAddress><dateTime>t</dateTime><eventType>ANPR</eventType><ANPR><licensePlate>X</licensePlate><vehicleInfo><vehicleType>car</vehicleType><color>red</color></vehicleInfo></ANPR></EventNotificationAlert>`,
			element: "vehicleInfo/speed",
		},
		{
			name:    "repeated ip address",
			xml:     `<EventNotificationAlert><ipAddress>1</ipAddress><ipAddress>2</ipAddress><dateTime>t</dateTime><eventType>ANPR</eventType><ANPR><licensePlate>X</licensePlate><vehicleInfo><vehicleType>car</vehicleType><color>red</color><speed>1</speed></vehicleInfo></ANPR></EventNotificationAlert>`,
			element: "EventNotificationAlert/ipAddress",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.xml)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsDecode(err))

			var appErr *pkgerrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.element, appErr.Details["element"])
		})
	}
}

func TestDecode_NotXML(t *testing.T) {
	tests := []string{
		"",
		"not xml at all",
		"<EventNotificationAlert><ipAddress>1</ipAddress>",
		"<HeartBeat><ipAddress>1</ipAddress></HeartBeat>",
	}

	for _, input := range tests {
		_, err := Decode(input)
		assert.True(t, pkgerrors.IsDecode(err), "input %q", input)
	}
}

func TestDecode_ContentOutsideRootRejected(t *testing.T) {
	raw, err := os.ReadFile("testdata/event.xml")
	require.NoError(t, err)
	doc := string(raw)

	tests := map[string]string{
		"garbage markup": doc + "<<<not xml &&& </unclosed>",
		"trailing text":  doc + "leftover",
		"second root":    doc + "<EventNotificationAlert/>",
		"stray end tag":  doc + "</EventNotificationAlert>",
		"leading text":   "junk" + doc,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(input)
			assert.True(t, pkgerrors.IsDecode(err), "input %q", input)
		})
	}
}

func TestDecode_CommentAfterRootAccepted(t *testing.T) {
	raw, err := os.ReadFile("testdata/event.xml")
	require.NoError(t, err)

	_, err = Decode(string(raw) + "\n<!-- end of event -->\n")
	assert.NoError(t, err)
}

func TestDecode_EmptyElementIsPresent(t *testing.T) {
	doc := `<EventNotificationAlert><ipAddress>10.0.0.2</ipAddress><dateTime>t</dateTime><eventType>ANPR</eventType>` +
		`<ANPR><licensePlate/><vehicleInfo><vehicleType> truck </vehicleType><color></color><speed>0</speed></vehicleInfo></ANPR></EventNotificationAlert>`

	event, err := Decode(doc)
	require.NoError(t, err)
	assert.Equal(t, "", event.LicensePlate)
	assert.Equal(t, "truck", event.VehicleType)
	assert.Equal(t, "", event.VehicleColor)
}
