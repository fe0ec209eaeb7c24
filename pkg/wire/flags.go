package wire

import "strings"

// DescriptionFlags controls how much detail a DESCRIBE request returns.
type DescriptionFlags uint8

const (
	IncludeAccessInformation DescriptionFlags = 1 << iota
	IncludeDeviceInformation
	IncludePropertyInformation
	IncludeDriverInformation
)

var descriptionFlagNames = []struct {
	flag DescriptionFlags
	name string
}{
	{IncludeAccessInformation, "IncludeAccessInformation"},
	{IncludeDeviceInformation, "IncludeDeviceInformation"},
	{IncludePropertyInformation, "IncludePropertyInformation"},
	{IncludeDriverInformation, "IncludeDriverInformation"},
}

// Has returns true if all bits of flag are set.
func (f DescriptionFlags) Has(flag DescriptionFlags) bool {
	return f&flag == flag
}

// Text returns the comma-joined flag names in wire order.
func (f DescriptionFlags) Text() string {
	names := make([]string, 0, len(descriptionFlagNames))
	for _, n := range descriptionFlagNames {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseDescriptionFlags decodes a comma-joined flag list. Unknown names are ignored.
func ParseDescriptionFlags(text string) DescriptionFlags {
	var f DescriptionFlags
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		for _, n := range descriptionFlagNames {
			if n.name == part {
				f |= n.flag
			}
		}
	}
	return f
}

// WriteFlags controls how the gateway applies a property write.
type WriteFlags uint8

const (
	// WriteFlagsNone writes the value without persisting it.
	WriteFlagsNone WriteFlags = 0

	// WriteFlagPermanent persists the value across device restarts.
	WriteFlagPermanent WriteFlags = 1 << 0
)

// Text returns the comma-joined flag names, empty for WriteFlagsNone.
func (f WriteFlags) Text() string {
	if f&WriteFlagPermanent != 0 {
		return "Permanent"
	}
	return ""
}

// ParseWriteFlags decodes a comma-joined write flag list.
func ParseWriteFlags(text string) WriteFlags {
	var f WriteFlags
	for _, part := range strings.Split(text, ",") {
		if strings.TrimSpace(part) == "Permanent" {
			f |= WriteFlagPermanent
		}
	}
	return f
}

// Ptr returns a pointer to f, for optional flag fields.
func (f WriteFlags) Ptr() *WriteFlags {
	return &f
}
