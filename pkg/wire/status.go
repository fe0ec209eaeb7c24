package wire

// Status is the result code carried by every response.
// The numeric values are the codes used on the binary wire.
type Status int8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusInProgress indicates the gateway accepted the operation and is still executing it.
	StatusInProgress Status = 1

	// StatusError indicates a generic failure. Unknown wire values decode to it.
	StatusError Status = -1

	// StatusNoProperty indicates the property does not exist.
	StatusNoProperty Status = -2

	// StatusNoDevice indicates the device does not exist.
	StatusNoDevice Status = -3

	// StatusNoDeviceAccess indicates the device access instance does not exist.
	StatusNoDeviceAccess Status = -4

	// StatusTimeout indicates a device did not answer in time.
	StatusTimeout Status = -5

	// StatusInvalidValue indicates the written value was rejected.
	StatusInvalidValue Status = -6
)

var statusText = map[Status]string{
	StatusSuccess:        "Success",
	StatusInProgress:     "InProgress",
	StatusError:          "Error",
	StatusNoProperty:     "NoProperty",
	StatusNoDevice:       "NoDevice",
	StatusNoDeviceAccess: "NoDeviceAccess",
	StatusTimeout:        "Timeout",
	StatusInvalidValue:   "InvalidValue",
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusError:
		return "ERROR"
	case StatusNoProperty:
		return "NO_PROPERTY"
	case StatusNoDevice:
		return "NO_DEVICE"
	case StatusNoDeviceAccess:
		return "NO_DEVICE_ACCESS"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusInvalidValue:
		return "INVALID_VALUE"
	default:
		return "UNKNOWN"
	}
}

// Text returns the status as written on the text wire.
func (s Status) Text() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return statusText[StatusError]
}

// ParseStatus decodes a text wire status. Unknown input yields StatusError.
func ParseStatus(text string) Status {
	for s, t := range statusText {
		if t == text {
			return s
		}
	}
	return StatusError
}

// StatusFromCode decodes a binary wire status. Unknown codes yield StatusError.
func StatusFromCode(code int64) Status {
	if code < int64(StatusInvalidValue) || code > int64(StatusInProgress) {
		return StatusError
	}
	return Status(code)
}

// AccessLevel is the permission tier granted at authorization.
type AccessLevel uint8

const (
	AccessLevelNone AccessLevel = iota
	AccessLevelBasic
	AccessLevelInstaller
	AccessLevelExpert
	AccessLevelQualifiedServicePersonnel
)

var accessLevelText = [...]string{"None", "Basic", "Installer", "Expert", "QSP"}

// String returns the access level name.
func (a AccessLevel) String() string {
	switch a {
	case AccessLevelNone:
		return "NONE"
	case AccessLevelBasic:
		return "BASIC"
	case AccessLevelInstaller:
		return "INSTALLER"
	case AccessLevelExpert:
		return "EXPERT"
	case AccessLevelQualifiedServicePersonnel:
		return "QUALIFIED_SERVICE_PERSONNEL"
	default:
		return "UNKNOWN"
	}
}

// Text returns the access level as written on the text wire.
func (a AccessLevel) Text() string {
	if int(a) < len(accessLevelText) {
		return accessLevelText[a]
	}
	return accessLevelText[AccessLevelNone]
}

// ParseAccessLevel decodes a text wire access level. Unknown input yields AccessLevelNone.
func ParseAccessLevel(text string) AccessLevel {
	for i, t := range accessLevelText {
		if t == text {
			return AccessLevel(i)
		}
	}
	return AccessLevelNone
}

// AccessLevelFromCode decodes a binary wire access level. Unknown codes yield AccessLevelNone.
func AccessLevelFromCode(code int64) AccessLevel {
	if code < 0 || code > int64(AccessLevelQualifiedServicePersonnel) {
		return AccessLevelNone
	}
	return AccessLevel(code)
}

// ExtensionStatus is the result code of an extension call.
type ExtensionStatus int8

const (
	ExtensionStatusSuccess              ExtensionStatus = 0
	ExtensionStatusUnsupportedExtension ExtensionStatus = -1
	ExtensionStatusUnsupportedCommand   ExtensionStatus = -2
	ExtensionStatusInvalidHeaders       ExtensionStatus = -3
	ExtensionStatusInvalidHeaderValues  ExtensionStatus = -4
	ExtensionStatusInvalidBody          ExtensionStatus = -5
	ExtensionStatusForbidden            ExtensionStatus = -6
	ExtensionStatusError                ExtensionStatus = -7
)

var extensionStatusText = map[ExtensionStatus]string{
	ExtensionStatusSuccess:              "Success",
	ExtensionStatusUnsupportedExtension: "UnsupportedExtension",
	ExtensionStatusUnsupportedCommand:   "UnsupportedCommand",
	ExtensionStatusInvalidHeaders:       "InvalidHeaders",
	ExtensionStatusInvalidHeaderValues:  "InvalidHeaderValues",
	ExtensionStatusInvalidBody:          "InvalidBody",
	ExtensionStatusForbidden:            "Forbidden",
	ExtensionStatusError:                "Error",
}

// String returns the extension status name.
func (s ExtensionStatus) String() string {
	switch s {
	case ExtensionStatusSuccess:
		return "SUCCESS"
	case ExtensionStatusUnsupportedExtension:
		return "UNSUPPORTED_EXTENSION"
	case ExtensionStatusUnsupportedCommand:
		return "UNSUPPORTED_COMMAND"
	case ExtensionStatusInvalidHeaders:
		return "INVALID_HEADERS"
	case ExtensionStatusInvalidHeaderValues:
		return "INVALID_HEADER_VALUES"
	case ExtensionStatusInvalidBody:
		return "INVALID_BODY"
	case ExtensionStatusForbidden:
		return "FORBIDDEN"
	case ExtensionStatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Text returns the extension status as written on the text wire.
func (s ExtensionStatus) Text() string {
	if t, ok := extensionStatusText[s]; ok {
		return t
	}
	return extensionStatusText[ExtensionStatusError]
}

// ParseExtensionStatus decodes a text wire extension status. Unknown input
// yields ExtensionStatusError.
func ParseExtensionStatus(text string) ExtensionStatus {
	for s, t := range extensionStatusText {
		if t == text {
			return s
		}
	}
	return ExtensionStatusError
}

// ExtensionStatusFromCode decodes a binary wire extension status.
func ExtensionStatusFromCode(code int64) ExtensionStatus {
	if code < int64(ExtensionStatusError) || code > 0 {
		return ExtensionStatusError
	}
	return ExtensionStatus(code)
}
