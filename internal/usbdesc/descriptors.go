// Package usbdesc holds the static USB and HID descriptor bytes the
// board-glue layer reports to the host controller (spec.md section 6:
// "the USB-HID driver itself ... is out of scope, but the core still
// owns the descriptor bytes that identify it as a FIDO device").
package usbdesc

// FIDO HID usage page and usage ID (USB HID Usage Tables, FIDO
// Alliance assignment).
const (
	FIDOUsagePage = 0xF1D0
	FIDOUsageID   = 0x01
)

// ReportSize matches hidtransport.ReportSize; duplicated here as a
// literal so this package has no dependency on the transport package,
// since board glue links only the descriptor bytes, never the framing
// state machine.
const ReportSize = 64

// PollIntervalMS is the USB interrupt endpoint polling interval this
// device requests, matching the 5 ms FIDO HID devices conventionally
// use to keep keepalive latency low.
const PollIntervalMS = 5

// HIDReportDescriptor is the fixed FIDO HID report descriptor: one
// INPUT and one OUTPUT report, each ReportSize bytes, usage page
// 0xF1D0 usage 0x01, per the FIDO U2F/CTAP2 HID binding.
var HIDReportDescriptor = []byte{
	0x06, 0xD0, 0xF1, // USAGE_PAGE (FIDO Alliance)
	0x09, 0x01, // USAGE (U2F HID Authenticator Device)
	0xA1, 0x01, // COLLECTION (Application)
	0x09, 0x20, //   USAGE (Input Report Data)
	0x15, 0x00, //   LOGICAL_MINIMUM (0)
	0x26, 0xFF, 0x00, //   LOGICAL_MAXIMUM (255)
	0x75, 0x08, //   REPORT_SIZE (8)
	0x95, ReportSize, //   REPORT_COUNT (64)
	0x81, 0x02, //   INPUT (Data,Var,Abs)
	0x09, 0x21, //   USAGE (Output Report Data)
	0x15, 0x00, //   LOGICAL_MINIMUM (0)
	0x26, 0xFF, 0x00, //   LOGICAL_MAXIMUM (255)
	0x75, 0x08, //   REPORT_SIZE (8)
	0x95, ReportSize, //   REPORT_COUNT (64)
	0x91, 0x02, //   OUTPUT (Data,Var,Abs)
	0xC0, // END_COLLECTION
}

// DeviceDescriptor is the fixed portion of a USB device descriptor;
// VendorID and ProductID are supplied by the caller of
// NewDeviceDescriptor and are not baked into this constant table.
type DeviceDescriptor struct {
	VendorID       uint16
	ProductID      uint16
	BCDUSB         uint16
	DeviceClass    byte
	MaxPacketSize0 byte
}

// NewDeviceDescriptor builds the device descriptor for a FIDO HID
// authenticator: class 0x00 (interface-defined, since the FIDO HID
// interface itself carries class 0x03), USB 2.0, 64-byte control
// packets.
func NewDeviceDescriptor(vendorID, productID uint16) DeviceDescriptor {
	return DeviceDescriptor{
		VendorID:       vendorID,
		ProductID:      productID,
		BCDUSB:         0x0200,
		DeviceClass:    0x00,
		MaxPacketSize0: 64,
	}
}

// HIDInterfaceClass, HIDInterfaceSubClass, and HIDInterfaceProtocol
// are the fixed USB interface-descriptor fields for a FIDO HID
// interface: HID class, no boot subclass, no boot protocol (FIDO
// devices are never keyboard/mouse boot devices).
const (
	HIDInterfaceClass    byte = 0x03
	HIDInterfaceSubClass byte = 0x00
	HIDInterfaceProtocol byte = 0x00
)
