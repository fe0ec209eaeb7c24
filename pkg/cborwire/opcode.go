// Package cborwire implements the binary encoding of the gateway protocol.
//
// A frame is a CBOR sequence: an unsigned integer opcode followed by the
// operation's fields in a fixed positional order. Optional fields are
// always present and hold CBOR null when unset. Timestamps are unsigned
// epoch seconds.
//
// READ PROPERTIES, the multi-property subscriptions and FIND PROPERTIES
// have no binary form and fail with wire.ErrUnsupported.
package cborwire

import "github.com/openstuder/openstuder-go/pkg/wire"

// Request opcodes count up from 1; a response is its request's opcode
// with bit 0x80 set. Unsolicited frames and ERROR use fixed sentinels.
const (
	codeAuthorize     uint64 = 0x01
	codeEnumerate     uint64 = 0x02
	codeDescribe      uint64 = 0x03
	codeReadProperty  uint64 = 0x04
	codeWrite         uint64 = 0x05
	codeSubscribe     uint64 = 0x06
	codeUnsubscribe   uint64 = 0x07
	codeReadDatalog   uint64 = 0x08
	codeReadMessages  uint64 = 0x09
	codeCallExtension uint64 = 0x0B

	responseBit uint64 = 0x80

	codeDeviceMessage  uint64 = 0xFD
	codePropertyUpdate uint64 = 0xFE
	codeError          uint64 = 0xFF
)

var opcodes = map[wire.Operation]uint64{
	wire.OpAuthorize:           codeAuthorize,
	wire.OpEnumerate:           codeEnumerate,
	wire.OpDescribe:            codeDescribe,
	wire.OpReadProperty:        codeReadProperty,
	wire.OpWriteProperty:       codeWrite,
	wire.OpSubscribeProperty:   codeSubscribe,
	wire.OpUnsubscribeProperty: codeUnsubscribe,
	wire.OpReadDatalog:         codeReadDatalog,
	wire.OpReadMessages:        codeReadMessages,
	wire.OpCallExtension:       codeCallExtension,

	wire.OpAuthorized:           codeAuthorize | responseBit,
	wire.OpEnumerated:           codeEnumerate | responseBit,
	wire.OpDescription:          codeDescribe | responseBit,
	wire.OpPropertyRead:         codeReadProperty | responseBit,
	wire.OpPropertyWritten:      codeWrite | responseBit,
	wire.OpPropertySubscribed:   codeSubscribe | responseBit,
	wire.OpPropertyUnsubscribed: codeUnsubscribe | responseBit,
	wire.OpDatalogRead:          codeReadDatalog | responseBit,
	wire.OpMessagesRead:         codeReadMessages | responseBit,
	wire.OpExtensionCalled:      codeCallExtension | responseBit,

	wire.OpDeviceMessage:  codeDeviceMessage,
	wire.OpPropertyUpdate: codePropertyUpdate,
	wire.OpError:          codeError,
}

var operations = func() map[uint64]wire.Operation {
	m := make(map[uint64]wire.Operation, len(opcodes))
	for op, code := range opcodes {
		m[code] = op
	}
	return m
}()

// Opcode returns the binary opcode of op.
func Opcode(op wire.Operation) (uint64, bool) {
	code, ok := opcodes[op]
	return code, ok
}

// OperationOf returns the operation identified by a binary opcode.
func OperationOf(code uint64) (wire.Operation, bool) {
	op, ok := operations[code]
	return op, ok
}
