package wire

// Operation identifies a protocol frame kind. The String form is the
// operation name used on the text wire.
type Operation uint8

const (
	OpUnknown Operation = iota

	// Requests, client to gateway.
	OpAuthorize
	OpEnumerate
	OpDescribe
	OpReadProperty
	OpReadProperties
	OpWriteProperty
	OpSubscribeProperty
	OpSubscribeProperties
	OpUnsubscribeProperty
	OpUnsubscribeProperties
	OpReadDatalog
	OpReadMessages
	OpFindProperties
	OpCallExtension

	// Responses, gateway to client.
	OpAuthorized
	OpEnumerated
	OpDescription
	OpPropertyRead
	OpPropertiesRead
	OpPropertyWritten
	OpPropertySubscribed
	OpPropertiesSubscribed
	OpPropertyUnsubscribed
	OpPropertiesUnsubscribed
	OpDatalogRead
	OpMessagesRead
	OpPropertiesFound
	OpExtensionCalled

	// Unsolicited frames, pushed while connected.
	OpPropertyUpdate
	OpDeviceMessage

	// OpError terminates the request it answers.
	OpError
)

var operationNames = map[Operation]string{
	OpAuthorize:              "AUTHORIZE",
	OpEnumerate:              "ENUMERATE",
	OpDescribe:               "DESCRIBE",
	OpReadProperty:           "READ PROPERTY",
	OpReadProperties:         "READ PROPERTIES",
	OpWriteProperty:          "WRITE PROPERTY",
	OpSubscribeProperty:      "SUBSCRIBE PROPERTY",
	OpSubscribeProperties:    "SUBSCRIBE PROPERTIES",
	OpUnsubscribeProperty:    "UNSUBSCRIBE PROPERTY",
	OpUnsubscribeProperties:  "UNSUBSCRIBE PROPERTIES",
	OpReadDatalog:            "READ DATALOG",
	OpReadMessages:           "READ MESSAGES",
	OpFindProperties:         "FIND PROPERTIES",
	OpCallExtension:          "CALL EXTENSION",
	OpAuthorized:             "AUTHORIZED",
	OpEnumerated:             "ENUMERATED",
	OpDescription:            "DESCRIPTION",
	OpPropertyRead:           "PROPERTY READ",
	OpPropertiesRead:         "PROPERTIES READ",
	OpPropertyWritten:        "PROPERTY WRITTEN",
	OpPropertySubscribed:     "PROPERTY SUBSCRIBED",
	OpPropertiesSubscribed:   "PROPERTIES SUBSCRIBED",
	OpPropertyUnsubscribed:   "PROPERTY UNSUBSCRIBED",
	OpPropertiesUnsubscribed: "PROPERTIES UNSUBSCRIBED",
	OpDatalogRead:            "DATALOG READ",
	OpMessagesRead:           "MESSAGES READ",
	OpPropertiesFound:        "PROPERTIES FOUND",
	OpExtensionCalled:        "EXTENSION CALLED",
	OpPropertyUpdate:         "PROPERTY UPDATE",
	OpDeviceMessage:          "DEVICE MESSAGE",
	OpError:                  "ERROR",
}

var operationsByName = func() map[string]Operation {
	m := make(map[string]Operation, len(operationNames))
	for op, name := range operationNames {
		m[name] = op
	}
	return m
}()

// responses maps each request to the single response operation that
// completes it.
var responses = map[Operation]Operation{
	OpAuthorize:             OpAuthorized,
	OpEnumerate:             OpEnumerated,
	OpDescribe:              OpDescription,
	OpReadProperty:          OpPropertyRead,
	OpReadProperties:        OpPropertiesRead,
	OpWriteProperty:         OpPropertyWritten,
	OpSubscribeProperty:     OpPropertySubscribed,
	OpSubscribeProperties:   OpPropertiesSubscribed,
	OpUnsubscribeProperty:   OpPropertyUnsubscribed,
	OpUnsubscribeProperties: OpPropertiesUnsubscribed,
	OpReadDatalog:           OpDatalogRead,
	OpReadMessages:          OpMessagesRead,
	OpFindProperties:        OpPropertiesFound,
	OpCallExtension:         OpExtensionCalled,
}

// String returns the operation name as written on the text wire.
func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseOperation looks up an operation by its text wire name.
func ParseOperation(name string) (Operation, bool) {
	op, ok := operationsByName[name]
	return op, ok
}

// IsRequest returns true for client-to-gateway operations.
func (o Operation) IsRequest() bool {
	return o >= OpAuthorize && o <= OpCallExtension
}

// IsUnsolicited returns true for frames the gateway pushes without a request.
func (o Operation) IsUnsolicited() bool {
	return o == OpPropertyUpdate || o == OpDeviceMessage
}

// Response returns the operation that answers request o, or OpUnknown if o
// is not a request.
func (o Operation) Response() Operation {
	return responses[o]
}
