package cborwire_test

import (
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/openstuder/openstuder-go/pkg/cborwire"
	"github.com/openstuder/openstuder-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ToLower(s))
	require.NoError(t, err)
	return b
}

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name string
		req  wire.Request
		want string
	}{
		{"authorize without credentials", &wire.AuthorizeRequest{}, "01f6f601"},
		{"authorize with credentials", &wire.AuthorizeRequest{User: "user", Password: "password"}, "01" + "6475736572" + "6870617373776f7264" + "01"},
		{"enumerate", &wire.EnumerateRequest{}, "02"},
		{"describe installation", &wire.DescribeRequest{}, "03f6"},
		{"describe access", &wire.DescribeRequest{AccessID: "demo"}, "036464656d6f"},
		{"describe property", &wire.DescribeRequest{AccessID: "a", DeviceID: "d", PropertyID: "p"}, "0365612e642e70"},
		{"read property", &wire.ReadPropertyRequest{ID: "demo.inv.3136"}, "046d64656d6f2e696e762e33313336"},
		{"write property without value", &wire.WritePropertyRequest{ID: "demo.inv.1415"}, "056d64656d6f2e696e762e31343135f6f6"},
		{
			"write property without flags",
			&wire.WritePropertyRequest{ID: "demo.inv.3333", Value: wire.Number(42.24)},
			"056d64656d6f2e696e762e33333333f6fb40451eb851eb851f",
		},
		{
			"write property flags none",
			&wire.WritePropertyRequest{ID: "demo.inv.3333", Value: wire.Number(42.24), Flags: wire.WriteFlagsNone.Ptr()},
			"056d64656d6f2e696e762e3333333300fb40451eb851eb851f",
		},
		{
			"write property permanent",
			&wire.WritePropertyRequest{ID: "demo.inv.3333", Value: wire.Number(42.24), Flags: wire.WriteFlagPermanent.Ptr()},
			"056d64656d6f2e696e762e3333333301fb40451eb851eb851f",
		},
		{"subscribe property", &wire.SubscribePropertyRequest{ID: "demo.bat.7003"}, "066d64656d6f2e6261742e37303033"},
		{"unsubscribe property", &wire.UnsubscribePropertyRequest{ID: "demo.bat.7003"}, "076d64656d6f2e6261742e37303033"},
		{"read datalog properties", &wire.ReadDatalogRequest{}, "08f6f6f6f6"},
		{"read datalog properties from", &wire.ReadDatalogRequest{From: time.Unix(0x21c9b370, 0)}, "08f61a21c9b370f6f6"},
		{"read datalog", &wire.ReadDatalogRequest{ID: "demo.inv.3137"}, "086d64656d6f2e696e762e33313337f6f6f6"},
		{"read datalog limit", &wire.ReadDatalogRequest{ID: "demo.inv.3137", Limit: 42}, "086d64656d6f2e696e762e33313337f6f6182a"},
		{
			"read datalog full",
			&wire.ReadDatalogRequest{ID: "demo.inv.3137", From: time.Unix(0x21ca6cb6, 0), To: time.Unix(0x21cbbe36, 0), Limit: 13},
			"086d64656d6f2e696e762e333133371a21ca6cb61a21cbbe360d",
		},
		{"read messages", &wire.ReadMessagesRequest{}, "09f6f6f6"},
		{"read messages from", &wire.ReadMessagesRequest{From: time.Unix(0x21c9b370, 0)}, "091a21c9b370f6f6"},
		{"read messages limit", &wire.ReadMessagesRequest{Limit: 42}, "09f6f6182a"},
		{
			"read messages full",
			&wire.ReadMessagesRequest{From: time.Unix(0x21ca6cb6, 0), To: time.Unix(0x21cbbe36, 0), Limit: 13},
			"091a21ca6cb61a21cbbe360d",
		},
		{
			"call extension",
			&wire.CallExtensionRequest{Extension: "WifiConfig", Command: "status", Params: []wire.Param{{Name: "mode", Value: wire.Text("ap")}}},
			"0b" + "6a57696669436f6e666967" + "66737461747573" + "81626170",
		},
	}

	codec := cborwire.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.EncodeRequest(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}
}

func TestEncodeRequestUnsupported(t *testing.T) {
	codec := cborwire.New()
	for _, req := range []wire.Request{
		&wire.ReadPropertiesRequest{IDs: []string{"a"}},
		&wire.SubscribePropertiesRequest{IDs: []string{"a"}},
		&wire.UnsubscribePropertiesRequest{IDs: []string{"a"}},
		&wire.FindPropertiesRequest{ID: "*"},
		&wire.DescribeRequest{AccessID: "demo", Flags: wire.IncludeDeviceInformation | wire.IncludePropertyInformation},
	} {
		t.Run(req.Operation().String(), func(t *testing.T) {
			_, err := codec.EncodeRequest(req)
			assert.ErrorIs(t, err, wire.ErrUnsupported)
		})
	}
}

func TestDecodeAuthorized(t *testing.T) {
	codec := cborwire.New()

	tests := []struct {
		hex  string
		want wire.AccessLevel
	}{
		{"188101016C302E302E302E333438373334", wire.AccessLevelBasic},
		{"188102016C302E302E302E333438373334", wire.AccessLevelInstaller},
		{"188103016C302E302E302E333438373334", wire.AccessLevelExpert},
		{"188104016C302E302E302E333438373334", wire.AccessLevelQualifiedServicePersonnel},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			msg, err := codec.DecodeMessage(unhex(t, tt.hex))
			require.NoError(t, err)
			assert.Equal(t, &wire.Authorized{AccessLevel: tt.want, ProtocolVersion: "1", GatewayVersion: "0.0.0.348734"}, msg)
		})
	}

	_, err := codec.DecodeMessage(unhex(t, "188101026C302E302E302E333438373334"))
	assert.EqualError(t, err, "protocol version 1 not supported by server")
}

func TestDecodeMessage(t *testing.T) {
	codec := cborwire.New()

	tests := []struct {
		name string
		hex  string
		want wire.Message
	}{
		{"enumerated", "18820007", &wire.Enumerated{Status: wire.StatusSuccess, DeviceCount: 7}},
		{"enumerated in progress", "18820100", &wire.Enumerated{Status: wire.StatusInProgress}},
		{
			"description",
			"188300f6a16464656d6f6444656d6f",
			&wire.Description{Status: wire.StatusSuccess, Description: map[string]any{"demo": "Demo"}},
		},
		{"description error", "188320f6f6", &wire.Description{Status: wire.StatusError}},
		{
			"property read number",
			"1884006d64656d6f2e696e762e33313336fb3fbf7ced916872b0",
			&wire.PropertyRead{Status: wire.StatusSuccess, ID: "demo.inv.3136", Value: wire.Number(0.123)},
		},
		{
			"property read false",
			"1884006d64656d6f2e696e762e33313336f4",
			&wire.PropertyRead{Status: wire.StatusSuccess, ID: "demo.inv.3136", Value: wire.Bool(false)},
		},
		{
			"property read true",
			"1884006d64656d6f2e696e762e33313336f5",
			&wire.PropertyRead{Status: wire.StatusSuccess, ID: "demo.inv.3136", Value: wire.Bool(true)},
		},
		{
			"property read no property",
			"1884216d64656d6f2e696e762e33313336f6",
			&wire.PropertyRead{Status: wire.StatusNoProperty, ID: "demo.inv.3136"},
		},
		{"property written", "1885006d64656d6f2e696e762e31343135", &wire.PropertyWritten{Status: wire.StatusSuccess, ID: "demo.inv.1415"}},
		{"property subscribed", "1886006d64656d6f2e6261742e37303033", &wire.PropertySubscribed{Status: wire.StatusSuccess, ID: "demo.bat.7003"}},
		{"property unsubscribed", "1887246d64656d6f2e6261742e37303033", &wire.PropertyUnsubscribed{Status: wire.StatusTimeout, ID: "demo.bat.7003"}},
		{
			"property update",
			"18FE6D64656D6F2E6261742E37303033FB400EFDF3B645A1CB",
			&wire.PropertyUpdate{ID: "demo.bat.7003", Value: wire.Number(3.874)},
		},
		{
			"datalog properties",
			"188800F602826D64656D6F2E6261742E373030336D64656D6F2E696E762E33313336",
			&wire.DatalogPropertiesRead{Status: wire.StatusSuccess, Count: 2, Properties: []string{"demo.bat.7003", "demo.inv.3136"}},
		},
		{
			"datalog read",
			"1888006D64656D6F2E6261742E3730303302841A60203CE8FB3FA01A36E2EB1C431A60203CACFB3FEB15379FA97E13",
			&wire.DatalogRead{Status: wire.StatusSuccess, ID: "demo.bat.7003", Count: 2, Entries: []wire.DatalogEntry{
				{Timestamp: time.Unix(1612725480, 0), Value: wire.Number(0.03145)},
				{Timestamp: time.Unix(1612725420, 0), Value: wire.Number(0.84634)},
			}},
		},
		{
			"device message",
			"18FD1A5E0BD2F0644133303362313118D277415558322072656C617920646561637469766174696F6E",
			&wire.DeviceMessage{
				Timestamp: time.Unix(0x5E0BD2F0, 0),
				AccessID:  "A303",
				DeviceID:  "11",
				MessageID: 210,
				Message:   "AUX2 relay deactivation",
			},
		},
		{
			"messages read",
			"188900028A1A5E0BD2F06464656D6F63696E7618D175415558322072656C61792061637469766174696F6E1A5E0BD6746464656D6F63696E7618D277415558322072656C617920646561637469766174696F6E",
			&wire.MessagesRead{Status: wire.StatusSuccess, Count: 2, Messages: []wire.DeviceMessage{
				{Timestamp: time.Unix(0x5E0BD2F0, 0), AccessID: "demo", DeviceID: "inv", MessageID: 209, Message: "AUX2 relay activation"},
				{Timestamp: time.Unix(0x5E0BD674, 0), AccessID: "demo", DeviceID: "inv", MessageID: 210, Message: "AUX2 relay deactivation"},
			}},
		},
		{
			"extension called",
			"188b" + "6a57696669436f6e666967" + "66737461747573" + "25" + "81626170",
			&wire.ExtensionCalled{
				Extension: "WifiConfig",
				Command:   "status",
				Status:    wire.ExtensionStatusForbidden,
				Params:    []wire.Param{{Value: wire.Text("ap")}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.DecodeMessage(unhex(t, tt.hex))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEmptyResults(t *testing.T) {
	codec := cborwire.New()

	msg, err := codec.DecodeMessage(unhex(t, "1888206D64656D6F2E6261742E373030330080"))
	require.NoError(t, err)
	dl := msg.(*wire.DatalogRead)
	assert.Equal(t, wire.StatusError, dl.Status)
	assert.Equal(t, "demo.bat.7003", dl.ID)
	assert.Equal(t, 0, dl.Count)
	assert.Empty(t, dl.Entries)

	msg, err = codec.DecodeMessage(unhex(t, "1889200080"))
	require.NoError(t, err)
	mr := msg.(*wire.MessagesRead)
	assert.Equal(t, wire.StatusError, mr.Status)
	assert.Empty(t, mr.Messages)
}

func TestDecodeMessageErrors(t *testing.T) {
	codec := cborwire.New()

	tests := []struct {
		name string
		hex  string
		is   error
	}{
		{"empty", "", wire.ErrMalformedFrame},
		{"unknown opcode", "18a0", wire.ErrMalformedFrame},
		{"truncated", "1882", wire.ErrMalformedFrame},
		{"wrong type", "188200f5", wire.ErrMalformedFrame},
		{"odd datalog", "1888006D64656D6F2E6261742E3730303301811A60203CE8", wire.ErrMalformedFrame},
		{"request opcode", "02", wire.ErrUnexpectedOperation},
		{"gateway error", "18FF6474657374", wire.ErrGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := codec.DecodeMessage(unhex(t, tt.hex))
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.is)
		})
	}

	_, err := codec.DecodeMessage(unhex(t, "18FF6474657374"))
	assert.EqualError(t, err, "test")
}

func TestStatusBytes(t *testing.T) {
	codec := cborwire.New()

	tests := []struct {
		b    string
		want wire.Status
	}{
		{"00", wire.StatusSuccess},
		{"01", wire.StatusInProgress},
		{"20", wire.StatusError},
		{"21", wire.StatusNoProperty},
		{"22", wire.StatusNoDevice},
		{"23", wire.StatusNoDeviceAccess},
		{"24", wire.StatusTimeout},
		{"25", wire.StatusInvalidValue},
		{"02", wire.StatusError},
		{"26", wire.StatusError},
		{"17", wire.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.b, func(t *testing.T) {
			msg, err := codec.DecodeMessage(unhex(t, "1882"+tt.b+"00"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg.(*wire.Enumerated).Status)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	codec := cborwire.New()
	ts := time.Unix(1612725480, 0)

	requests := []wire.Request{
		&wire.AuthorizeRequest{User: "u", Password: "p"},
		&wire.AuthorizeRequest{},
		&wire.EnumerateRequest{},
		&wire.DescribeRequest{AccessID: "a", DeviceID: "d"},
		&wire.ReadPropertyRequest{ID: "a.d.p"},
		&wire.WritePropertyRequest{ID: "a.d.p", Value: wire.Bool(true), Flags: wire.WriteFlagPermanent.Ptr()},
		&wire.SubscribePropertyRequest{ID: "a.d.p"},
		&wire.UnsubscribePropertyRequest{ID: "a.d.p"},
		&wire.ReadDatalogRequest{ID: "a.d.p", From: ts, Limit: 3},
		&wire.ReadMessagesRequest{To: ts},
		&wire.CallExtensionRequest{Extension: "e", Command: "c", Params: []wire.Param{{Value: wire.Number(1)}}},
	}
	for _, req := range requests {
		t.Run(req.Operation().String(), func(t *testing.T) {
			data, err := codec.EncodeRequest(req)
			require.NoError(t, err)
			got, err := codec.DecodeRequest(data)
			require.NoError(t, err)
			assert.Equal(t, req, got)
		})
	}

	messages := []wire.Message{
		&wire.Authorized{AccessLevel: wire.AccessLevelExpert, ProtocolVersion: "1", GatewayVersion: "0.0.0.348734"},
		&wire.Enumerated{Status: wire.StatusSuccess, DeviceCount: 3},
		&wire.Description{Status: wire.StatusSuccess, ID: "a", Description: map[string]any{"k": "v"}},
		&wire.PropertyRead{Status: wire.StatusSuccess, ID: "a.d.p", Value: wire.Text("x")},
		&wire.PropertyWritten{Status: wire.StatusInvalidValue, ID: "a.d.p"},
		&wire.PropertySubscribed{Status: wire.StatusSuccess, ID: "a.d.p"},
		&wire.PropertyUnsubscribed{Status: wire.StatusSuccess, ID: "a.d.p"},
		&wire.PropertyUpdate{ID: "a.d.p", Value: wire.Number(2.5)},
		&wire.DatalogRead{Status: wire.StatusSuccess, ID: "a.d.p", Count: 1, Entries: []wire.DatalogEntry{{Timestamp: ts, Value: wire.Number(1)}}},
		&wire.DatalogPropertiesRead{Status: wire.StatusSuccess, Count: 1, Properties: []string{"a.d.p"}},
		&wire.DeviceMessage{Timestamp: ts, AccessID: "a", DeviceID: "d", MessageID: 7, Message: "m"},
		&wire.MessagesRead{Status: wire.StatusSuccess, Count: 1, Messages: []wire.DeviceMessage{{Timestamp: ts, AccessID: "a", DeviceID: "d", MessageID: 7, Message: "m"}}},
		&wire.ExtensionCalled{Extension: "e", Command: "c", Status: wire.ExtensionStatusSuccess, Params: []wire.Param{{Value: wire.Bool(false)}}},
	}
	for _, msg := range messages {
		t.Run(msg.Operation().String(), func(t *testing.T) {
			data, err := codec.EncodeMessage(msg)
			require.NoError(t, err)
			got, err := codec.DecodeMessage(data)
			require.NoError(t, err)
			assert.Equal(t, msg, got)
		})
	}

	data, err := codec.EncodeMessage(&wire.ErrorMessage{Reason: "test"})
	require.NoError(t, err)
	assert.Equal(t, "18ff6474657374", hex.EncodeToString(data))
}

func TestPeekOperation(t *testing.T) {
	codec := cborwire.New()

	op, err := codec.PeekOperation(unhex(t, "18FE6D64656D6F2E6261742E37303033FB400EFDF3B645A1CB"))
	require.NoError(t, err)
	assert.Equal(t, wire.OpPropertyUpdate, op)

	op, err = codec.PeekOperation(unhex(t, "188200"))
	require.NoError(t, err)
	assert.Equal(t, wire.OpEnumerated, op)
}
